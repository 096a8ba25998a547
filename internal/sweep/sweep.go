// Package sweep implements the sweep validator (spec.md §4.10, C10):
// pairwise comparison of a current channel snapshot against a previous one,
// classifying each channel's transition and flagging anomalies.
package sweep

import (
	"fmt"

	"github.com/apkerk/youtube-longitudinal/internal/model"
	"github.com/apkerk/youtube-longitudinal/internal/writer"
)

// State is the per-channel transition classification (spec.md §4.10 "State
// machine").
type State string

const (
	StateNew       State = "NEW"
	StateMissing   State = "MISSING"
	StateStable    State = "STABLE"
	StateAnomalous State = "ANOMALOUS"
)

// Severity mirrors health.Severity's three-level scale but is kept distinct
// since sweep findings are per-channel, not per-check (spec.md §4.10: error/
// warning/info per finding, not a single overall grade).
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Finding is one anomaly detected for a channel (spec.md §4.10 first
// paragraph: duplicates, missing fields, view decrease, subscriber drop,
// video-count decrease, kid-flag flip, new addition, now-not-found).
type Finding struct {
	ChannelID string
	Severity  Severity
	Kind      string
	Detail    string
}

// ChannelReport is one channel's transition plus any findings.
type ChannelReport struct {
	ChannelID string
	State     State
	Findings  []Finding
}

// ValidationReport is the sweep's full output (spec.md §9 glossary
// "ValidationReport").
type ValidationReport struct {
	Channels []ChannelReport
	Errors   int
	Warnings int
	Infos    int
}

func (r *ValidationReport) addFinding(f Finding) {
	switch f.Severity {
	case SeverityError:
		r.Errors++
	case SeverityWarning:
		r.Warnings++
	default:
		r.Infos++
	}
}

// MaxSubscriberDropPct is the default anomaly threshold for a subscriber
// drop (spec.md §4.10: "subscriber drop > 50%"); callers with a
// config.StaticData.ValidationThresholds value should prefer that.
const MaxSubscriberDropPct = 0.5

// Compare loads currentPath and previousPath as channel snapshots and
// produces a ValidationReport (spec.md §4.10).
func Compare(currentPath, previousPath string, maxSubscriberDropPct float64) (ValidationReport, error) {
	if maxSubscriberDropPct <= 0 {
		maxSubscriberDropPct = MaxSubscriberDropPct
	}

	currentRows, err := writer.ReadAll(currentPath)
	if err != nil {
		return ValidationReport{}, err
	}
	previousRows, err := writer.ReadAll(previousPath)
	if err != nil {
		return ValidationReport{}, err
	}

	previous := make(map[string]model.Channel, len(previousRows))
	for _, row := range previousRows {
		ch := model.ChannelFromRow(row)
		previous[ch.ChannelID] = ch
	}

	seenInCurrent := make(map[string]bool, len(currentRows))
	var report ValidationReport

	for _, row := range currentRows {
		ch := model.ChannelFromRow(row)

		cr := ChannelReport{ChannelID: ch.ChannelID}

		if ch.ChannelID == "" {
			f := Finding{ChannelID: ch.ChannelID, Severity: SeverityError, Kind: "missing_required_field", Detail: "empty channel_id"}
			cr.Findings = append(cr.Findings, f)
			report.addFinding(f)
		}
		if seenInCurrent[ch.ChannelID] {
			f := Finding{ChannelID: ch.ChannelID, Severity: SeverityError, Kind: "duplicate", Detail: "channel_id repeated in current snapshot"}
			cr.Findings = append(cr.Findings, f)
			report.addFinding(f)
		}
		seenInCurrent[ch.ChannelID] = true

		prev, hadPrev := previous[ch.ChannelID]

		switch {
		case ch.Status == "not_found":
			cr.State = StateMissing
			f := Finding{ChannelID: ch.ChannelID, Severity: SeverityWarning, Kind: "now_not_found", Detail: "channel returned not_found"}
			cr.Findings = append(cr.Findings, f)
			report.addFinding(f)
		case !hadPrev:
			cr.State = StateNew
			f := Finding{ChannelID: ch.ChannelID, Severity: SeverityInfo, Kind: "new_addition", Detail: "no previous snapshot row"}
			cr.Findings = append(cr.Findings, f)
			report.addFinding(f)
		default:
			cr.State = StateStable
			if ch.ViewCount < prev.ViewCount {
				cr.State = StateAnomalous
				f := Finding{ChannelID: ch.ChannelID, Severity: SeverityWarning, Kind: "view_count_decrease",
					Detail: fmt.Sprintf("%d -> %d", prev.ViewCount, ch.ViewCount)}
				cr.Findings = append(cr.Findings, f)
				report.addFinding(f)
			}
			if prev.SubscriberCount > 0 {
				drop := float64(prev.SubscriberCount-ch.SubscriberCount) / float64(prev.SubscriberCount)
				if drop > maxSubscriberDropPct {
					cr.State = StateAnomalous
					f := Finding{ChannelID: ch.ChannelID, Severity: SeverityWarning, Kind: "subscriber_drop",
						Detail: fmt.Sprintf("%.1f%% drop", drop*100)}
					cr.Findings = append(cr.Findings, f)
					report.addFinding(f)
				}
			}
			if ch.VideoCount < prev.VideoCount {
				f := Finding{ChannelID: ch.ChannelID, Severity: SeverityInfo, Kind: "video_count_decrease",
					Detail: fmt.Sprintf("%d -> %d", prev.VideoCount, ch.VideoCount)}
				cr.Findings = append(cr.Findings, f)
				report.addFinding(f)
			}
			if ch.MadeForKids != prev.MadeForKids {
				f := Finding{ChannelID: ch.ChannelID, Severity: SeverityInfo, Kind: "made_for_kids_flip",
					Detail: fmt.Sprintf("%v -> %v", prev.MadeForKids, ch.MadeForKids)}
				cr.Findings = append(cr.Findings, f)
				report.addFinding(f)
			}
		}

		report.Channels = append(report.Channels, cr)
	}

	return report, nil
}

// ExitCode maps a ValidationReport onto the spec's 0/1/2 scale: any error
// finding is severity 2, any warning (with no error) is 1, else 0.
func (r ValidationReport) ExitCode() int {
	switch {
	case r.Errors > 0:
		return 2
	case r.Warnings > 0:
		return 1
	default:
		return 0
	}
}
