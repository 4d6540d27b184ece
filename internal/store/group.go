package store

import (
	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/smallbiznis/orderdesk/internal/order/domain"
	tagdomain "github.com/smallbiznis/orderdesk/internal/tag/domain"
	"gorm.io/datatypes"
)

// taggedRow is the flattened join row produced by the batched tag load.
type taggedRow struct {
	OrderID snowflake.ID
	Tag     tagdomain.Tag
}

func chunkIDs(ids []snowflake.ID, size int) [][]snowflake.ID {
	if size < 1 {
		size = 1
	}
	chunks := make([][]snowflake.ID, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

func int64s(ids []snowflake.ID) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		out = append(out, int64(id))
	}
	return out
}

func groupLines(lines []orderdomain.OrderLine) map[snowflake.ID][]orderdomain.OrderLine {
	grouped := make(map[snowflake.ID][]orderdomain.OrderLine, len(lines))
	for _, line := range lines {
		grouped[line.OrderID] = append(grouped[line.OrderID], line)
	}
	return grouped
}

func groupTags(rows []taggedRow) map[snowflake.ID][]tagdomain.Tag {
	grouped := make(map[snowflake.ID][]tagdomain.Tag, len(rows))
	for _, row := range rows {
		grouped[row.OrderID] = append(grouped[row.OrderID], row.Tag)
	}
	return grouped
}

// jsonMap keeps metadata columns NOT NULL friendly: a nil map persists as
// an empty object, not SQL NULL.
func jsonMap(m datatypes.JSONMap) datatypes.JSONMap {
	if m == nil {
		return datatypes.JSONMap{}
	}
	return m
}

func missingIDs(requested []snowflake.ID, found []snowflake.ID) []snowflake.ID {
	present := make(map[snowflake.ID]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}
	missing := make([]snowflake.ID, 0)
	seen := make(map[snowflake.ID]struct{}, len(requested))
	for _, id := range requested {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
