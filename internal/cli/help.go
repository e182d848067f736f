package cli

const rootLong = `Keep track of trouble tickets by their HD, TAR and ISD numbers.

A ticket is a record of named fields. Records are found by key fields
(hd, tar, isd by default) or by query:

  status in (new, active) and assignee is not null
  100 <= hd < 200 or desc like '%timeout%'
  not (status = 'deployed') and reported >= '2024-01-01'
  isd-77

Comparisons: = != < <= > >=, chained ranges (1 < hd <= 9),
is [not] null, [not] in (...), [not] like '%pattern%'. Combine with
and / or (and binds tighter), negate a parenthesised group with not or !.

The store, backend and schema come from flags, TARPIT_* environment
variables or ~/.tarpit/config.yaml, in that order.`
