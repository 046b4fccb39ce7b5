package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/desk-reservation-planner/internal/model"
)

// appendHistoryScript pushes each payload onto the list only when its dedup
// key is new to the set.  Running it as a script keeps the check and the
// append atomic across concurrent sweepers.
var appendHistoryScript = redis.NewScript(`
	local list_key = KEYS[1]
	local set_key = KEYS[2]
	local added = 0
	for i = 1, #ARGV, 2 do
		if redis.call('SADD', set_key, ARGV[i]) == 1 then
			redis.call('RPUSH', list_key, ARGV[i + 1])
			added = added + 1
		end
	end
	return added
`)

// HistoryRepo keeps the reservation history in Redis: a list of JSON entries
// in append order plus a set of dedup keys.
type HistoryRepo struct {
	rdb     *redis.Client
	listKey string
	setKey  string
}

// NewHistoryRepo returns a HistoryRepo storing its keys under prefix
// ("history" when empty).
func NewHistoryRepo(rdb *redis.Client, prefix string) *HistoryRepo {
	if prefix == "" {
		prefix = "history"
	}
	return &HistoryRepo{rdb: rdb, listKey: prefix + ":entries", setKey: prefix + ":keys"}
}

// Read returns every archived entry, oldest first.
func (r *HistoryRepo) Read(ctx context.Context) ([]model.HistoryEntry, error) {
	raw, err := r.rdb.LRange(ctx, r.listKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	out := make([]model.HistoryEntry, 0, len(raw))
	for i, s := range raw {
		var e model.HistoryEntry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			return nil, fmt.Errorf("decode history entry %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Append adds the entries whose (desk label, reserved until) key has not been
// archived yet.  Duplicates within the batch are collapsed as well.
func (r *HistoryRepo) Append(ctx context.Context, entries []model.HistoryEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	args := make([]interface{}, 0, len(entries)*2)
	for _, e := range entries {
		payload, err := json.Marshal(e)
		if err != nil {
			return 0, err
		}
		args = append(args, e.Key().String(), string(payload))
	}
	added, err := appendHistoryScript.Run(ctx, r.rdb, []string{r.listKey, r.setKey}, args...).Int()
	if err != nil {
		return 0, fmt.Errorf("append history: %w", err)
	}
	return added, nil
}

// Clear drops the whole history, dedup keys included.
func (r *HistoryRepo) Clear(ctx context.Context) error {
	if err := r.rdb.Del(ctx, r.listKey, r.setKey).Err(); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
