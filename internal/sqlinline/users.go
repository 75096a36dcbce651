package sqlinline

const QSelectUserByID = `--sql 9ebbd279-7cb2-4209-8f01-7b1dcbafd5ad
select id, email, plan, created_at, updated_at
from users
where id = $1::uuid;
`

const QUpsertUser = `--sql 66548fe8-cf26-42ac-a83f-a5b3ee8d6792
insert into users (id, email, plan, created_at, updated_at)
values ($1::uuid, $2::text, $3::text, now(), now())
on conflict (id) do update set
    email = excluded.email,
    plan = excluded.plan,
    updated_at = now()
returning id, email, plan, created_at, updated_at;
`
