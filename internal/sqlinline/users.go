package sqlinline

// QClaimActiveSession flips the active-session flag from false to true in a
// single statement, creating the user when absent. The conditional update
// returns no row when the flag was already set, which signals the caller
// that another session is still open.
const QClaimActiveSession = `--sql 8637e419-6005-4d9d-bd75-abc8b6007493
insert into users (id, email, display_name, points, active_session, payment_status, last_active, created_at, updated_at)
values ($1, $2, $3, 0, true, false, $4, now(), now())
on conflict (id) do update set
    active_session = true,
    email = excluded.email,
    display_name = case when excluded.display_name <> '' then excluded.display_name else users.display_name end,
    last_active = excluded.last_active,
    updated_at = now()
where users.active_session = false
returning id;
`

// QReleaseActiveSession only clears the flag while no open session exists, so
// replaying a release after the user has started a fresh session is a no-op.
const QReleaseActiveSession = `--sql 68e5f056-0480-41ee-b810-6f8e00e3b48b
update users
set active_session = false,
    last_session_end = $2,
    last_active = $2,
    updated_at = now()
where id = $1
  and not exists (
      select 1
      from sessions
      where sessions.user_id = users.id
        and sessions.completed = false
  );
`

const QSelectUserByID = `--sql b49a5bf4-a1ab-406a-8558-2239414b70bc
select id, email, display_name, points, active_session, payment_status,
       last_active, last_session_end, created_at, updated_at
from users
where id = $1;
`

const QTopUsersByPoints = `--sql f72c5fc6-0b72-4525-b343-7422f9e81de1
select id, email, display_name, points, active_session, payment_status,
       last_active, last_session_end, created_at, updated_at
from users
order by points desc, updated_at asc
limit $1;
`

// QMarkUserPaid upserts: a reader can pay before their first session ever
// creates the users row.
const QMarkUserPaid = `--sql f06b1811-93fc-4027-84bb-cf4e8e2756c3
insert into users (id, email, display_name, points, active_session, payment_status, payment_reference, payment_verified_at, created_at, updated_at)
values ($1, $2, '', 0, false, true, $3, $4, now(), now())
on conflict (id) do update set
    payment_status = true,
    payment_reference = excluded.payment_reference,
    payment_verified_at = excluded.payment_verified_at,
    updated_at = now();
`
