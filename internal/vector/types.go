package vector

import "time"

// searchRow is the raw similarity search row scanned from Postgres
type searchRow struct {
	ChunkID     string    `db:"chunk_id"`
	TextContent string    `db:"text_content"`
	Score       float64   `db:"score"`
	Timestamp   time.Time `db:"ts"`
}
