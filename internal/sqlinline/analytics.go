package sqlinline

const QTryOnIncrement = `--sql 3b94e4ee-82a1-4663-9c31-473a03c802f5
insert into tryon_daily (
  day, submitted, succeeded, failed, submit_failed, processing_seconds
) values (
  $1::date, $2, $3, $4, $5, $6
) on conflict (day) do update set
  submitted = tryon_daily.submitted + excluded.submitted,
  succeeded = tryon_daily.succeeded + excluded.succeeded,
  failed = tryon_daily.failed + excluded.failed,
  submit_failed = tryon_daily.submit_failed + excluded.submit_failed,
  processing_seconds = tryon_daily.processing_seconds + excluded.processing_seconds,
  updated_at = now();
`

const QTryOnSummary = `--sql 5b063a75-e024-4727-8234-ea2ce7425e90
select day, submitted, succeeded, failed, submit_failed, processing_seconds, created_at, updated_at
from tryon_daily
order by day desc
limit 1;
`
