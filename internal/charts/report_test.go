package charts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mtgtools/commander-companion/internal/cards"
)

func TestRenderCollectionReport(t *testing.T) {
	records := []cards.Record{
		{Name: "Sol Ring", TypeLine: "Artifact", Quantity: 2},
		{Name: "Counterspell", ColorIdentity: []string{"U"}, Quantity: 1},
		{Name: "Azorius Charm", ColorIdentity: []string{"W", "U"}, Quantity: 3},
	}
	commander := &cards.Record{
		Name:          "Atraxa, Praetors' Voice",
		TypeLine:      "Legendary Creature — Phyrexian Angel Horror",
		ColorIdentity: []string{"W", "U", "B", "G"},
	}

	out := filepath.Join(t.TempDir(), "report.html")
	if err := RenderCollectionReport(records, commander, out); err != nil {
		t.Fatalf("RenderCollectionReport() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	html := string(data)
	if !strings.Contains(html, "Color Distribution") {
		t.Error("report missing color distribution chart")
	}
	if !strings.Contains(html, "Synergy Distribution") {
		t.Error("report missing synergy chart with a commander selected")
	}
	if !strings.Contains(html, commander.Name) {
		t.Error("report missing commander name in synergy subtitle")
	}
}

func TestRenderCollectionReportWithoutCommander(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.html")
	err := RenderCollectionReport([]cards.Record{{Name: "Sol Ring", Quantity: 1}}, nil, out)
	if err != nil {
		t.Fatalf("RenderCollectionReport() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if strings.Contains(string(data), "Synergy Distribution") {
		t.Error("synergy chart rendered without a commander")
	}
}

func TestRenderCollectionReportBadPath(t *testing.T) {
	err := RenderCollectionReport(nil, nil, filepath.Join(t.TempDir(), "missing", "report.html"))
	if err == nil {
		t.Error("RenderCollectionReport() with unwritable path returned nil error")
	}
}
