package siri

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Row is one flattened monitored visit: lower-cased field name to scalar
// string value.
type Row map[string]string

// Pipeline stage names, reported on Gap.
const (
	StageDelivery  = "delivery"
	StageVisits    = "visits"
	StageJourney   = "journey"
	StageExpansion = "expansion"
)

// Gap names the pipeline stage whose expected structure was absent. It is a
// "no rows produced" outcome, distinct from an error: the stop still counts
// as processed.
type Gap struct {
	Stage  string
	Detail string
}

func (g *Gap) String() string {
	return fmt.Sprintf("%s: %s", g.Stage, g.Detail)
}

// Fields hoisted during sub-structure expansion. All three must be present
// somewhere in the visit set; partial expansion is not accepted.
var expansionTargets = []string{"FramedVehicleJourneyRef", "TrainNumbers", "MonitoredCall"}

var nanPattern = regexp.MustCompile(`\bnan\b`)

// Flatten converts one raw stop monitoring document into uniform rows, one
// per monitored visit. Each stage short-circuits to a Gap when its
// precondition fails. The input document is never mutated.
func Flatten(doc map[string]any) ([]Row, *Gap) {
	entries, gap := extractDelivery(doc)
	if gap != nil {
		return nil, gap
	}

	visits, gap := collectVisits(entries)
	if gap != nil {
		return nil, gap
	}

	if gap := expandJourneys(visits); gap != nil {
		return nil, gap
	}

	if gap := expandSubStructures(visits); gap != nil {
		return nil, gap
	}

	return normalizeScalars(visits), nil
}

// extractDelivery descends Siri.ServiceDelivery.StopMonitoringDelivery.
func extractDelivery(doc map[string]any) ([]any, *Gap) {
	root, _ := doc["Siri"].(map[string]any)
	serviceDelivery, _ := root["ServiceDelivery"].(map[string]any)
	entries, ok := serviceDelivery["StopMonitoringDelivery"].([]any)
	if !ok || len(entries) == 0 {
		return nil, &Gap{Stage: StageDelivery, Detail: "missing or empty StopMonitoringDelivery"}
	}
	return entries, nil
}

// collectVisits concatenates every entry's MonitoredStopVisit list into one
// flat sequence. Visits are copied so later expansion never touches the
// caller's document.
func collectVisits(entries []any) ([]map[string]any, *Gap) {
	var visits []map[string]any
	for _, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}
		list, _ := entry["MonitoredStopVisit"].([]any)
		for _, v := range list {
			visit, ok := v.(map[string]any)
			if !ok {
				continue
			}
			copied := make(map[string]any, len(visit))
			for k, val := range visit {
				copied[k] = val
			}
			visits = append(visits, copied)
		}
	}
	if len(visits) == 0 {
		return nil, &Gap{Stage: StageVisits, Detail: "no MonitoredStopVisit entries"}
	}
	return visits, nil
}

// expandJourneys hoists each visit's MonitoredVehicleJourney fields to the
// top level, replacing the nested key.
func expandJourneys(visits []map[string]any) *Gap {
	if !anyHasKey(visits, "MonitoredVehicleJourney") {
		return &Gap{Stage: StageJourney, Detail: "missing column (MonitoredVehicleJourney)"}
	}
	for _, visit := range visits {
		hoist(visit, "MonitoredVehicleJourney")
	}
	return nil
}

// expandSubStructures hoists the journey reference, train-number list and
// monitored-call details. Every target must be present in the key union
// across visits.
func expandSubStructures(visits []map[string]any) *Gap {
	var missing []string
	for _, target := range expansionTargets {
		if !anyHasKey(visits, target) {
			missing = append(missing, target)
		}
	}
	if len(missing) > 0 {
		return &Gap{
			Stage:  StageExpansion,
			Detail: fmt.Sprintf("missing columns (%s)", strings.Join(missing, ", ")),
		}
	}
	for _, visit := range visits {
		for _, target := range expansionTargets {
			hoist(visit, target)
		}
	}
	return nil
}

func anyHasKey(visits []map[string]any, key string) bool {
	for _, visit := range visits {
		if _, ok := visit[key]; ok {
			return true
		}
	}
	return false
}

// hoist replaces a nested object key with its fields at the top level. A
// value that is not an object is dropped with the key.
func hoist(visit map[string]any, key string) {
	nested, ok := visit[key].(map[string]any)
	if _, present := visit[key]; !present {
		return
	}
	delete(visit, key)
	if !ok {
		return
	}
	for k, v := range nested {
		visit[k] = v
	}
}

// normalizeScalars stringifies every value, strips list brackets and nan
// tokens, unwraps single-value objects and lower-cases column names.
func normalizeScalars(visits []map[string]any) []Row {
	rows := make([]Row, 0, len(visits))
	for _, visit := range visits {
		row := make(Row, len(visit))
		for k, v := range visit {
			s := stringify(v)
			s = strings.TrimPrefix(s, "[")
			s = strings.TrimSuffix(s, "]")
			s = nanPattern.ReplaceAllString(s, "")
			s = unwrapValue(s)
			row[strings.ToLower(k)] = s
		}
		rows = append(rows, row)
	}
	return rows
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		// Objects and lists serialize to canonical JSON (sorted keys) so
		// repeated runs stay byte-identical.
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

// unwrapValue substitutes a single-object string with its "value" member when
// present. Parse failures keep the original string.
func unwrapValue(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") || !strings.HasSuffix(trimmed, "}") {
		return s
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return s
	}
	if v, ok := obj["value"]; ok {
		return stringify(v)
	}
	return s
}
