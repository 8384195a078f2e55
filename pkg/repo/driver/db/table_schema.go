package db

import "github.com/JacMa99/appless-workout-mvp/pkg/consts"

var dbTableSchemas = map[string]string{
	consts.GroupNudgeTable:   groupNudgeLedgerSchema,
	consts.PrivateNudgeTable: privateNudgeLedgerSchema,
}

var groupNudgeLedgerSchema = `
CREATE TABLE IF NOT EXISTS  %s.nudge_group_ledger (
scope varchar,
date text,
group_id varchar,
uid varchar,
name varchar,
days_inactive int,
sent_at timestamp,
run_id varchar,
PRIMARY KEY (scope)
)
`

var privateNudgeLedgerSchema = `
CREATE TABLE IF NOT EXISTS  %s.nudge_private_ledger (
scope varchar,
date text,
group_id varchar,
uid varchar,
name varchar,
days_inactive int,
sent_at timestamp,
run_id varchar,
PRIMARY KEY (scope)
)
`
