package id

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init initializes the Snowflake node with the given node ID.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a new globally unique int64 ID using the Snowflake algorithm.
// Used for chunk ids assigned during document ingestion.
func New() int64 {
	return node.Generate().Int64()
}

// NewTraceID returns an 8-character hex token identifying a single request
// across pipeline logs.
func NewTraceID() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
