package records

import (
	"bytes"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/hnrobert/umgmt/internal/hostfs"
)

// FileSet exposes the account files of a host.
type FileSet struct {
	host *hostfs.Host

	// MissingOK treats an absent shadow or gshadow file as empty instead of
	// unavailable. passwd and group are always required.
	MissingOK bool
}

func NewFileSet(h *hostfs.Host) *FileSet {
	return &FileSet{host: h}
}

func (fs *FileSet) Sources() Sources {
	return Sources{
		Passwd:  &fileSource[Passwd]{fs: fs, rel: hostfs.EtcPasswdRel, kind: KindPasswd, parse: ParsePasswd},
		Shadow:  &fileSource[Shadow]{fs: fs, rel: hostfs.EtcShadowRel, kind: KindShadow, parse: ParseShadow, optional: true},
		Group:   &fileSource[Group]{fs: fs, rel: hostfs.EtcGroupRel, kind: KindGroup, parse: ParseGroup},
		Gshadow: &fileSource[Gshadow]{fs: fs, rel: hostfs.EtcGshadowRel, kind: KindGshadow, parse: ParseGshadow, optional: true},
	}
}

func (fs *FileSet) Sinks() Sinks {
	return Sinks{
		Passwd:  &fileSink[Passwd]{fs: fs, rel: hostfs.EtcPasswdRel, kind: KindPasswd, perm: 0644},
		Shadow:  &fileSink[Shadow]{fs: fs, rel: hostfs.EtcShadowRel, kind: KindShadow, perm: 0600},
		Group:   &fileSink[Group]{fs: fs, rel: hostfs.EtcGroupRel, kind: KindGroup, perm: 0644},
		Gshadow: &fileSink[Gshadow]{fs: fs, rel: hostfs.EtcGshadowRel, kind: KindGshadow, perm: 0600},
	}
}

type fileSource[T any] struct {
	fs       *FileSet
	rel      string
	kind     Kind
	parse    func(string) (T, error)
	optional bool
}

func (s *fileSource[T]) Records() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		lines, err := s.read()
		if err != nil {
			yield(zero, err)
			return
		}
		for i, line := range lines {
			if skipLine(line) {
				continue
			}
			rec, err := s.parse(line)
			if err != nil {
				yield(zero, &ParseError{Kind: s.kind, Line: i + 1, Name: nameOf(line), Err: err})
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func (s *fileSource[T]) read() ([]string, error) {
	path, err := s.fs.host.Path(s.rel)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, s.kind, err)
	}
	b, err := s.fs.host.ReadFile(path)
	if err != nil {
		if s.optional && s.fs.MissingOK && errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, s.kind, err)
	}
	return readLines(bytes.NewReader(b))
}

type lineRecord interface {
	Line() string
	Validate() error
}

type fileSink[T lineRecord] struct {
	fs   *FileSet
	rel  string
	kind Kind
	perm os.FileMode
}

func (s *fileSink[T]) Open() (Writer[T], error) {
	path, err := s.fs.host.Path(s.rel)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSinkUnavailable, s.kind, err)
	}
	if st, err := s.fs.host.Fs().Stat(filepath.Dir(path)); err != nil || !st.IsDir() {
		return nil, fmt.Errorf("%w: %s: directory %s missing", ErrSinkUnavailable, s.kind, filepath.Dir(path))
	}
	return &fileWriter[T]{sink: s, path: path}, nil
}

type fileWriter[T lineRecord] struct {
	sink *fileSink[T]
	path string
	buf  strings.Builder
}

func (w *fileWriter[T]) Write(r T) error {
	if err := r.Validate(); err != nil {
		return err
	}
	w.buf.WriteString(r.Line())
	w.buf.WriteByte('\n')
	return nil
}

func (w *fileWriter[T]) Commit() error {
	data := []byte(w.buf.String())
	w.buf.Reset()
	return w.sink.fs.host.WriteFileAtomic(w.path, data, w.sink.perm)
}

func (w *fileWriter[T]) Discard() { w.buf.Reset() }
