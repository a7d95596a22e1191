package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/vsariola/looper"
)

type (
	// Snapshot is a tape in the form it is saved to YAML files: the live
	// notes from the oldest to the newest, and optionally the sequencer
	// settings they were recorded with. Each saved snapshot gets a new ID, so
	// that files written by autosave can be told apart.
	Snapshot struct {
		ID       string                    `yaml:"id,omitempty"`
		Settings *looper.SequencerSettings `yaml:"settings,omitempty"`
		Notes    []NoteRecord              `yaml:"notes"`
	}

	NoteRecord struct {
		On       looper.Pos `yaml:"on" json:"on"`
		Off      looper.Pos `yaml:"off" json:"off"`
		Pitch    byte       `yaml:"pitch" json:"pitch"`
		Velocity byte       `yaml:"velocity" json:"velocity"`
		Open     bool       `yaml:"open,omitempty" json:"open,omitempty"` // still held when saved; Off is meaningless
	}
)

var (
	ErrTooManyNotes = fmt.Errorf("a tape holds at most %d notes", looper.MaxNotes)
	ErrBadID        = errors.New("snapshot id is not a uuid")
)

// NewSnapshot captures the live notes of the tape. settings may be nil.
func NewSnapshot(t looper.Tape, settings *looper.SequencerSettings) Snapshot {
	s := Snapshot{ID: uuid.NewString(), Notes: make([]NoteRecord, 0, t.Len())}
	if settings != nil {
		c := *settings
		s.Settings = &c
	}
	for index := range t.Live {
		note := &t.Notes[index]
		s.Notes = append(s.Notes, NoteRecord{
			On:       note.OnPos,
			Off:      note.OffPos,
			Pitch:    note.Pitch,
			Velocity: note.Velocity,
			Open:     note.Open(),
		})
	}
	return s
}

// Tape lays the notes out from slot 0 onwards, oldest first. Like with
// Unpack, only the off links are meaningful: a tape is made usable with
// deck.Load.
func (s *Snapshot) Tape() (looper.Tape, error) {
	t := looper.EmptyTape()
	if len(s.Notes) > looper.MaxNotes {
		return t, fmt.Errorf("%w: got %d", ErrTooManyNotes, len(s.Notes))
	}
	if s.ID != "" {
		if _, err := uuid.Parse(s.ID); err != nil {
			return t, fmt.Errorf("%w: %v", ErrBadID, err)
		}
	}
	for i, r := range s.Notes {
		index := looper.Index(i)
		t.Notes[i] = looper.Note{
			Next:     looper.NullLink(),
			OnPos:    r.On,
			OffPos:   r.Off,
			Pitch:    r.Pitch,
			Velocity: r.Velocity,
		}
		if !r.Open {
			t.Notes[i].Next.Off = index
		}
		t.Newest = index
	}
	return t, nil
}

func (s *Snapshot) Copy() Snapshot {
	c := Snapshot{ID: s.ID, Notes: append([]NoteRecord(nil), s.Notes...)}
	if s.Settings != nil {
		settings := *s.Settings
		c.Settings = &settings
	}
	return c
}

func ReadSnapshot(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("decoding tape snapshot: %w", err)
	}
	if _, err := s.Tape(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

func WriteSnapshot(w io.Writer, s Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding tape snapshot: %w", err)
	}
	return enc.Close()
}

// IsYAML tells from the file name whether a tape file is a YAML snapshot
// rather than a packed record.
func IsYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yml" || ext == ".yaml"
}

// Load reads a tape file, either a YAML snapshot or a packed record depending
// on the extension. A packed record carries no settings or ID.
func Load(path string) (Snapshot, error) {
	if IsYAML(path) {
		f, err := os.Open(path)
		if err != nil {
			return Snapshot{}, fmt.Errorf("reading tape: %w", err)
		}
		defer f.Close()
		return ReadSnapshot(f)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading tape: %w", err)
	}
	t, err := Unpack(b)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading tape %s: %w", path, err)
	}
	s := NewSnapshot(t, nil)
	s.ID = ""
	return s, nil
}

// Save writes the snapshot to path in the format given by the extension. The
// file is replaced atomically, so that a crash while saving never leaves a
// half written tape behind.
func Save(path string, s Snapshot) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("saving tape: %w", err)
	}
	defer os.Remove(f.Name())
	if IsYAML(path) {
		err = WriteSnapshot(f, s)
	} else {
		var t looper.Tape
		if t, err = s.Tape(); err == nil {
			_, err = f.Write(Pack(t))
		}
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("saving tape %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("saving tape %s: %w", path, err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("saving tape %s: %w", path, err)
	}
	return nil
}
