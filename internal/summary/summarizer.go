// Package summary turns place-search candidates into a user-facing digest.
package summary

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/toasahi/ramen-agent/internal/places"
)

const (
	blockSeparator  = "------------------------"
	noResultsDigest = "条件に合うラーメン店が見つかりませんでした。別の都道府県や駅名でお試しください。"
)

// Summarizer produces a textual digest from search candidates, one block
// per shop, ordered by descending rating.
type Summarizer interface {
	Summarize(ctx context.Context, shops []places.Place) (string, error)
}

// TextSummarizer formats the digest deterministically with no remote
// dependency. It is the fallback when no model-backed summarizer is
// configured.
type TextSummarizer struct{}

// Summarize renders one block per shop in descending rating order, or a
// no-results digest for an empty candidate list.
func (TextSummarizer) Summarize(_ context.Context, shops []places.Place) (string, error) {
	return Digest(shops), nil
}

// Digest is the canonical text rendering of a candidate list
func Digest(shops []places.Place) string {
	if len(shops) == 0 {
		return noResultsDigest
	}

	ordered := make([]places.Place, len(shops))
	copy(ordered, shops)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Rating > ordered[j].Rating
	})

	var b strings.Builder
	for _, shop := range ordered {
		b.WriteString(blockSeparator)
		b.WriteString("\n")
		fmt.Fprintf(&b, "店名: %s\n", shop.Name)
		fmt.Fprintf(&b, "住所: %s\n", shop.Address)
		if len(shop.OpeningHours) > 0 {
			fmt.Fprintf(&b, "営業時間: %s\n", strings.Join(shop.OpeningHours, " / "))
		}
		fmt.Fprintf(&b, "Google評価: %.1f (%d件)\n", shop.Rating, shop.RatingCount)
	}
	b.WriteString(blockSeparator)
	return b.String()
}
