// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS daily_stats (
	date TEXT PRIMARY KEY,
	buy_amount TEXT NOT NULL,
	sell_amount TEXT NOT NULL,
	trade_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_log (
	id TEXT PRIMARY KEY,
	timestamp DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	price TEXT NOT NULL,
	trade_type TEXT NOT NULL,
	is_buy INTEGER NOT NULL,
	decision TEXT NOT NULL,
	reason TEXT NOT NULL,
	user TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_log(timestamp);
`
