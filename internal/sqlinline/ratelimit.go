package sqlinline

// Rolling-window counters keep exactly one row per user (owner_id is the
// primary key). The increment only touches an active under-limit window;
// the start statement either inserts the first window or resets a stale one
// in place. Both are single conditional statements so concurrent requests
// cannot create duplicate windows or push a count past the limit.

const QIncrementRateWindow = `--sql a9d914ba-0522-4e70-adf6-cf6fa9b881c5
update rate_windows
set request_count = request_count + 1
where owner_id = $1::uuid
  and window_start > now() - $2::interval
  and request_count < $3::int
returning window_start, request_count;
`

const QStartRateWindow = `--sql f09ce6e7-45c1-4723-83de-43ead5fd82bc
insert into rate_windows (owner_id, window_start, request_count)
values ($1::uuid, now(), 1)
on conflict (owner_id) do update set
    window_start = now(),
    request_count = 1
where rate_windows.window_start <= now() - $2::interval
returning window_start, request_count;
`

const QSelectRateWindow = `--sql 5a073484-18d8-48bf-a127-a38ab0693b49
select window_start, request_count
from rate_windows
where owner_id = $1::uuid;
`
