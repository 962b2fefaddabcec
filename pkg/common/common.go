package common

import (
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
)

const NA = "N/A"

var (
	idNode     *snowflake.Node
	idNodeOnce sync.Once
)

// SetNodeID configures the snowflake node used by UUIDint64. It must be called
// before the first ID is generated to take effect.
func SetNodeID(n int64) {
	idNodeOnce.Do(func() {
		node, err := snowflake.NewNode(n)
		if err != nil {
			node, _ = snowflake.NewNode(1)
		}
		idNode = node
	})
}

// UUIDint64 returns a time ordered unique int64 id.
func UUIDint64() int64 {
	SetNodeID(1)
	return idNode.Generate().Int64()
}

func IfEmptyStr(src string, defval string) string {
	if strings.TrimSpace(src) == "" {
		return defval
	}
	return src
}
