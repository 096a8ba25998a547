package sweep

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apkerk/youtube-longitudinal/internal/model"
	"github.com/apkerk/youtube-longitudinal/internal/writer"
)

func writeChannels(t *testing.T, path string, channels []model.Channel) {
	t.Helper()
	var rows [][]string
	for _, ch := range channels {
		rows = append(rows, ch.ToRow())
	}
	require.NoError(t, writer.Append(path, model.ChannelInitialFields, rows))
}

func TestCompareClassifiesNewStableMissingAnomalous(t *testing.T) {
	dir := t.TempDir()
	previousPath := filepath.Join(dir, "previous.csv")
	currentPath := filepath.Join(dir, "current.csv")

	writeChannels(t, previousPath, []model.Channel{
		{ChannelID: "UC1", ViewCount: 100, SubscriberCount: 100, VideoCount: 5},
		{ChannelID: "UC2", ViewCount: 50, SubscriberCount: 50, VideoCount: 2},
		{ChannelID: "UC3", ViewCount: 10, SubscriberCount: 10, VideoCount: 1},
	})
	writeChannels(t, currentPath, []model.Channel{
		{ChannelID: "UC1", ViewCount: 150, SubscriberCount: 110, VideoCount: 6},
		{ChannelID: "UC2", ViewCount: 40, SubscriberCount: 50, VideoCount: 2},
		{ChannelID: "UC3", Status: "not_found"},
		{ChannelID: "UC4", ViewCount: 5, SubscriberCount: 5, VideoCount: 1},
	})

	report, err := Compare(currentPath, previousPath, 0.5)
	require.NoError(t, err)

	states := make(map[string]State, len(report.Channels))
	for _, cr := range report.Channels {
		states[cr.ChannelID] = cr.State
	}
	assert.Equal(t, StateStable, states["UC1"])
	assert.Equal(t, StateAnomalous, states["UC2"]) // view_count_decrease
	assert.Equal(t, StateMissing, states["UC3"])
	assert.Equal(t, StateNew, states["UC4"])
}

func TestCompareDetectsSubscriberDropAndDuplicate(t *testing.T) {
	dir := t.TempDir()
	previousPath := filepath.Join(dir, "previous.csv")
	currentPath := filepath.Join(dir, "current.csv")

	writeChannels(t, previousPath, []model.Channel{
		{ChannelID: "UC1", ViewCount: 100, SubscriberCount: 1000, VideoCount: 5},
	})
	writeChannels(t, currentPath, []model.Channel{
		{ChannelID: "UC1", ViewCount: 200, SubscriberCount: 400, VideoCount: 5},
		{ChannelID: "UC1", ViewCount: 200, SubscriberCount: 400, VideoCount: 5},
	})

	report, err := Compare(currentPath, previousPath, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Errors) // duplicate
	assert.GreaterOrEqual(t, report.Warnings, 1)

	var foundDrop bool
	for _, cr := range report.Channels {
		for _, f := range cr.Findings {
			if f.Kind == "subscriber_drop" {
				foundDrop = true
			}
		}
	}
	assert.True(t, foundDrop)
}

func TestExitCodeSeverityPriority(t *testing.T) {
	assert.Equal(t, 0, ValidationReport{}.ExitCode())
	assert.Equal(t, 1, ValidationReport{Warnings: 1}.ExitCode())
	assert.Equal(t, 2, ValidationReport{Errors: 1, Warnings: 3}.ExitCode())
}
