package sqlite

// schema mirrors the ledger's two tables. Moves are stored as "<seat0>,<seat1>".
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS games (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	match_id    TEXT NOT NULL,
	room_id     TEXT NOT NULL,
	player1_id  INTEGER NOT NULL REFERENCES users(id),
	player2_id  INTEGER NOT NULL REFERENCES users(id),
	choices     TEXT NOT NULL,
	game_status TEXT NOT NULL CHECK (game_status IN ('player1_win', 'player2_win', 'draw')),
	played_at   TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS games_pair_idx ON games (player1_id, player2_id);
`
