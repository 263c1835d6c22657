package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	nodeOnce sync.Once
	node     *snowflake.Node
)

func defaultNode() *snowflake.Node {
	nodeOnce.Do(func() {
		n, err := snowflake.NewNode(1)
		if err == nil {
			node = n
		}
	})
	return node
}

// New returns a time-ordered identifier such as "sale-1759990000000000000".
// Ids from the same process are strictly increasing.
func New(prefix string) string {
	if n := defaultNode(); n != nil {
		return fmt.Sprintf("%s-%s", prefix, n.Generate().String())
	}
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixNano(), hex.EncodeToString(buf))
}
