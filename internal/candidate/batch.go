package candidate

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Batch is an ordered list of candidates handed from stage to stage.
type Batch struct {
	Items []*Item `json:"items"`
}

func NewBatch(items ...*Item) *Batch {
	return &Batch{Items: items}
}

func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Items)
}

func (b *Batch) IDs() []uint {
	ids := make([]uint, 0, b.Len())
	if b == nil {
		return ids
	}
	for _, item := range b.Items {
		if item != nil {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

func (b *Batch) FindByID(id uint) *Item {
	if b == nil {
		return nil
	}
	for _, item := range b.Items {
		if item != nil && item.ID == id {
			return item
		}
	}
	return nil
}

// Dedupe removes nil entries and repeated IDs keeping the first occurrence and
// the original order. It returns the number of removed items.
func (b *Batch) Dedupe() int {
	if b == nil {
		return 0
	}

	seen := make(map[uint]struct{}, len(b.Items))
	kept := b.Items[:0]
	removed := 0
	for _, item := range b.Items {
		if item == nil {
			removed++
			continue
		}
		if _, ok := seen[item.ID]; ok {
			removed++
			continue
		}
		seen[item.ID] = struct{}{}
		kept = append(kept, item)
	}
	b.Items = kept
	return removed
}

func (b *Batch) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "candidates_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ReportByRole groups the candidates by matched role, best final score first.
func (b *Batch) ReportByRole() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	if b == nil {
		return report
	}

	items := make([]*Item, len(b.Items))
	copy(items, b.Items)
	sort.SliceStable(items, func(i, j int) bool {
		return finalScore(items[i]) > finalScore(items[j])
	})

	for _, item := range items {
		if item == nil {
			continue
		}
		report[item.MatchedRole] = append(report[item.MatchedRole], map[string]string{
			"id":          fmt.Sprintf("%d", item.ID),
			"name":        item.Fields.Name,
			"email":       item.Fields.Email,
			"final score": fmt.Sprintf("%.2f", item.FinalScore),
			"status":      item.EmailStatus,
			"rejection":   item.RejectionReason,
		})
	}
	return report
}

func finalScore(item *Item) float64 {
	if item == nil {
		return 0
	}
	return item.FinalScore
}
