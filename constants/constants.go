package constants

import "os"

func GetListenAddr() string {
	addr := os.Getenv("LISTEN_ADDR")
	if addr != "" {
		return addr
	}
	return ":8080"
}

func GetScoresDBPath() string {
	path := os.Getenv("SCORES_DB_PATH")
	if path != "" {
		return path
	}
	return "./scores.db"
}

func GetMetadataEndpoint() string {
	endpoint := os.Getenv("METADATA_ENDPOINT")
	if endpoint != "" {
		return endpoint
	}
	return "http://localhost:8000"
}

func GetMetadataTable() string {
	table := os.Getenv("METADATA_TABLE")
	if table != "" {
		return table
	}
	return "strumline-songs"
}

// Chunk geometry for the detection stream. Chunks are 12s long and
// overlap by 2s, so consecutive chunks are 10s apart.
const (
	ChunkDuration = 12.0
	ChunkOverlap  = 2.0
	ChunkHop      = ChunkDuration - ChunkOverlap
)
