package journal

import _ "embed"

//go:embed schema_sqlite.sql
var sqliteSchema string

//go:embed schema_postgres.sql
var postgresSchema string

const columns = `id, level, starting_balance, risk_percentage, risk_amount, profit_goal, pips,
	lot_size, result, win_amount, loss_amount, reward_ratio, created_at, ending_balance`
