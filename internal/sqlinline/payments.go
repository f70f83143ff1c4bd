package sqlinline

const QInsertPayment = `--sql 07064f61-207e-48e6-821e-c6f19c5254ce
insert into payments (reference, user_id, email, amount, currency, status, provider, provider_reference, created_at)
values ($1, $2, $3, $4, $5, 'pending', 'paystack', '', now());
`

const QSelectPaymentByReference = `--sql 80468bb5-92c1-4142-953a-6d85849e2e75
select reference, user_id, email, amount, currency, status, provider, provider_reference, created_at, verified_at
from payments
where reference = $1;
`

const QMarkPaymentVerified = `--sql c65660e4-b6ce-4fa0-a53a-3941d67abebe
update payments
set status = 'success',
    provider_reference = $2,
    amount = $3,
    currency = $4,
    verified_at = $5
where reference = $1;
`
