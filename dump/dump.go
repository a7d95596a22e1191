// Package dump prints tapes in a human readable form.
package dump

import (
	"fmt"
	"io"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vsariola/looper"
	"github.com/vsariola/looper/storage"
)

// Info is what the dump is made of.
type Info struct {
	Path     string
	Size     int64 // of the file, in bytes
	Snapshot storage.Snapshot
}

// BarWidth is the number of characters a whole loop takes in the note bars.
const BarWidth = 32

const tapeTemplate = `{{ .Path }}: {{ bytes .Size }}, {{ bytes .RecordSize }} packed
id:    {{ .Snapshot.ID | default "none" }}
{{- with .Snapshot.Settings }}
mode:  {{ title .PlayMode.String }}, {{ .LoopLength }} steps of {{ .Division.NumTicks }} ticks
{{- end }}
notes: {{ len .Snapshot.Notes }} of {{ .MaxNotes }}
{{- range $i, $n := .Snapshot.Notes }}
{{ printf "%2d" $i }} {{ noteName $n.Pitch | printf "%-4s" }} {{ printf "%3d" $n.Velocity }} {{ printf "%5d" $n.On }}
{{- if $n.Open }} open
{{- else }} {{ printf "%5d" $n.Off }} |{{ bar $n }}|
{{- end }}
{{- end }}
`

var noteNames = [...]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName returns the pitch in scientific pitch notation, middle C being C4.
func NoteName(pitch byte) string {
	return fmt.Sprintf("%s%d", noteNames[pitch%12], int(pitch)/12-1)
}

// Bar draws the note as a line of BarWidth characters, one loop long.
func Bar(n storage.NoteRecord) string {
	var line [BarWidth]byte
	for i := range line {
		pos := looper.Pos(i * 65536 / BarWidth)
		if n.On == n.Off || looper.Passed(pos, n.On, n.Off) {
			line[i] = '#'
		} else {
			line[i] = ' '
		}
	}
	return string(line[:])
}

var tmpl = template.Must(template.New("tape").Funcs(sprig.TxtFuncMap()).Funcs(template.FuncMap{
	"title":    func(s string) string { return cases.Title(language.English).String(s) },
	"bytes":    func(n int64) string { return humanize.Bytes(uint64(n)) },
	"noteName": NoteName,
	"bar":      Bar,
}).Parse(tapeTemplate))

type view struct {
	Info
	RecordSize int64
	MaxNotes   int
}

// Write prints info to w.
func Write(w io.Writer, info Info) error {
	if err := tmpl.Execute(w, view{Info: info, RecordSize: storage.RecordSize, MaxNotes: looper.MaxNotes}); err != nil {
		return fmt.Errorf("dumping %s: %w", info.Path, err)
	}
	return nil
}
