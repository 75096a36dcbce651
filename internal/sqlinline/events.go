package sqlinline

const QInsertUsageEvent = `--sql a5752bed-c997-4277-bd7e-ff39bd501c37
insert into usage_events (id, owner_id, job_id, event_type, success, latency_ms, created_at)
values (gen_random_uuid(), $1::uuid, nullif($2, '')::uuid, $3::text, $4::boolean, $5::int, now());
`

const QStatsSummary = `--sql 2d9f83d8-ca25-4558-84ba-20fc352de0cf
select
  (select count(*) from users) as total_users,
  count(*) filter (where event_type = 'job_queued') as jobs_queued,
  count(*) filter (where event_type = 'job_completed') as jobs_completed,
  count(*) filter (where event_type = 'job_failed') as jobs_failed,
  count(*) filter (where event_type = 'inline_stream') as inline_streams,
  count(*) filter (where event_type = 'job_queued' and created_at > now() - interval '24 hours') as queued_last24,
  count(*) filter (where success and created_at > now() - interval '24 hours') as success_last24
from usage_events;
`
