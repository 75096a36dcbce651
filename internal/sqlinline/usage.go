package sqlinline

// Quota counters are only ever mutated through the conditional increment
// below. A usage_limit below zero means unlimited.

const QClaimUsage = `--sql 6a4b0192-e7f2-4ba3-89ef-4ad22ba4f2c4
update usage_counters
set current_usage = current_usage + 1,
    updated_at = now()
where owner_id = $1::uuid
  and (usage_limit < 0 or current_usage < usage_limit)
returning current_usage, usage_limit, updated_at;
`

const QSelectUsage = `--sql 541971ae-2d71-4969-bcc1-a20652fa087a
select current_usage, usage_limit, updated_at
from usage_counters
where owner_id = $1::uuid;
`

const QUpsertUsage = `--sql 481ffc66-e465-4c77-81b9-1472fbab98ed
insert into usage_counters (owner_id, current_usage, usage_limit, updated_at)
values ($1::uuid, $2::int, $3::int, now())
on conflict (owner_id) do update set
    current_usage = excluded.current_usage,
    usage_limit = excluded.usage_limit,
    updated_at = now()
returning current_usage, usage_limit, updated_at;
`
