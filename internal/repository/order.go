package repository

import (
	"sort"

	"github.com/lalith-99/pulsechat/internal/models"
	"github.com/samber/lo"
)

// OrderMessages deduplicates msgs by id (first occurrence wins) and sorts
// the result ascending by timestamp, ties broken by id. Every read path of
// the message store ends here, whether the rows came from SQL or a cache.
func OrderMessages(msgs []models.Message) []models.Message {
	out := lo.UniqBy(msgs, func(m models.Message) string { return m.ID })
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// LatestPerReceiver keeps, for each receiver, the message with the greatest
// timestamp (ties broken by id) and returns them newest first.
func LatestPerReceiver(msgs []models.Message) []models.Message {
	latest := make(map[string]models.Message)
	for _, m := range msgs {
		cur, ok := latest[m.ReceiverID]
		if !ok || m.Timestamp.After(cur.Timestamp) ||
			(m.Timestamp.Equal(cur.Timestamp) && m.ID > cur.ID) {
			latest[m.ReceiverID] = m
		}
	}
	out := lo.Values(latest)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
