package sqlinline

const QInsertJob = `--sql 7d255e0c-eedc-4e62-a457-504eca740379
insert into generation_jobs (id, owner_id, kind, prompt, status, created_at)
values ($1::uuid, $2::uuid, $3::text, $4::text, 'pending', now())
returning created_at;
`

const QSelectJobByID = `--sql a8472af5-38ff-4d67-b04e-1f3c9607d45a
select id, owner_id, kind, prompt, status, result_json, error_message, created_at, completed_at
from generation_jobs
where id = $1::uuid;
`

const QMarkJobInProgress = `--sql 72ef3c1b-5351-4348-962e-910303bbeca7
update generation_jobs
set status = 'in_progress'
where id = $1::uuid and status = 'pending';
`

const QCompleteJob = `--sql 1a959e38-b9ea-4d90-9571-ea8a9fb71e4e
update generation_jobs
set status = 'completed',
    result_json = $2::jsonb,
    completed_at = now()
where id = $1::uuid and status = 'in_progress';
`

const QFailJob = `--sql 0242a2b9-f2ec-4e3a-865a-0e1d25f88241
update generation_jobs
set status = 'failed',
    error_message = $2::text,
    completed_at = now()
where id = $1::uuid and status = 'in_progress';
`

const QResetJobForRetry = `--sql e099810f-3fda-4934-870e-87f88a6238e4
update generation_jobs
set status = 'pending',
    error_message = '',
    completed_at = null
where id = $1::uuid and status = 'failed';
`

const QSelectUnfinishedJobs = `--sql 8fabcd48-5c31-43d3-b915-b6cc145b17df
select id
from generation_jobs
where status in ('pending', 'in_progress')
order by created_at asc;
`

const QResetInProgressJobs = `--sql 878653ed-88f8-4e6e-89a0-1e829536257f
update generation_jobs
set status = 'pending'
where status = 'in_progress';
`
