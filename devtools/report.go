package devtools

import (
	"html/template"
	"io"
)

// Report renders a session's recorded events as a standalone HTML page,
// for attaching to a bug report or reviewing offline.
func Report(w io.Writer, sessionID string, events []Event) error {
	data := reportData{
		SessionID: sessionID,
		Events:    events,
		Tracks:    countKind(events, EventTrack),
		Triggers:  countKind(events, EventTrigger),
		Drains:    countKind(events, EventDrain),
	}
	return reportTemplate.Execute(w, data)
}

type reportData struct {
	SessionID string
	Events    []Event
	Tracks    int
	Triggers  int
	Drains    int
}

func countKind(events []Event, kind EventKind) int {
	n := 0
	for _, ev := range events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>reactor session report — {{.SessionID}}</title>
  <style>
    body { font-family: system-ui, sans-serif; margin: 20px; }
    table { border-collapse: collapse; width: 100%; font-size: 0.9em; }
    th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
    th { background: #f0f0f0; }
    .summary { margin-bottom: 16px; }
  </style>
</head>
<body>
  <h1>Session {{.SessionID}}</h1>
  <div class="summary">
    {{.Tracks}} tracks &middot; {{.Triggers}} triggers &middot; {{.Drains}} drains &middot; {{len .Events}} events total
  </div>
  <table>
    <tr><th>Time</th><th>Kind</th><th>Effect</th><th>Target</th><th>Key</th><th>Op</th></tr>
    {{range .Events}}
    <tr>
      <td>{{.Timestamp.Format "15:04:05.000"}}</td>
      <td>{{.Kind}}</td>
      <td>{{if .EffectID}}{{.EffectID}}{{end}}</td>
      <td>{{.Target}}</td>
      <td>{{.Key}}</td>
      <td>{{.Op}}</td>
    </tr>
    {{end}}
  </table>
</body>
</html>`))
