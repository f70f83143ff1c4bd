package sqlinline

const QInsertSession = `--sql 5d618c90-f1ee-47b5-9f36-9da37c8f1f4d
insert into sessions (id, user_id, status, started_at, paused_accum_millis, completed, points_awarded, auto_ended, auto_end_reason, created_at, updated_at)
values ($1, $2, 'active', $3, 0, false, false, false, '', now(), now());
`

const QSelectSessionByID = `--sql 413ef85d-55eb-4535-bfef-0b3ffe5d93fc
select id, user_id, status, started_at, paused_at, paused_accum_millis,
       ended_at, total_active_millis, completed, points_awarded, auto_ended, auto_end_reason
from sessions
where id = $1;
`

// The pause/resume/end statements are guarded on the expected prior status so
// concurrent duplicate requests resolve to exactly one transition. Zero rows
// affected means the guard failed and the caller must re-read the session.
const QPauseSession = `--sql 0ec74d49-d471-44cc-8b41-ed3948a2712a
update sessions
set status = 'paused',
    paused_at = $2,
    updated_at = now()
where id = $1
  and status = 'active'
  and completed = false;
`

const QResumeSession = `--sql 8013094b-f319-46d8-b31f-d59a2aa3034a
update sessions
set status = 'active',
    paused_at = null,
    paused_accum_millis = $2,
    updated_at = now()
where id = $1
  and status = 'paused'
  and completed = false;
`

const QEndSession = `--sql 2402fbbd-58e5-47f2-801f-7b54e684111c
update sessions
set status = 'ended',
    completed = true,
    ended_at = $2,
    total_active_millis = $3,
    points_awarded = $4,
    auto_ended = $5,
    auto_end_reason = $6,
    paused_at = null,
    updated_at = now()
where id = $1
  and status <> 'ended'
  and completed = false;
`

// QSettleSessionEnd pays out a manually ended session in one statement: the
// CTE flips points_awarded from false to true, and only when that guarded
// flip matched does the outer update award the point and release the owner's
// active-session flag. Either the whole payout commits or none of it does,
// and the flag guard makes replays no-ops.
const QSettleSessionEnd = `--sql 6afc0d2e-9b34-4f0a-8f1e-2d7c45a90b13
with settled as (
    update sessions
    set points_awarded = true,
        updated_at = now()
    where id = $1
      and completed = true
      and auto_ended = false
      and points_awarded = false
    returning user_id
)
update users
set points = points + 1,
    active_session = false,
    last_session_end = $2,
    last_active = $2,
    updated_at = now()
from settled
where users.id = settled.user_id;
`

const QListStaleSessions = `--sql ff8d17a1-47d7-4171-92e4-edf47e43d2cd
select id, user_id, status, started_at, paused_at, paused_accum_millis,
       ended_at, total_active_millis, completed, points_awarded, auto_ended, auto_end_reason
from sessions
where completed = false
  and status <> 'ended'
  and started_at < $1
order by started_at asc
limit $2;
`
