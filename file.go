// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classdex

import (
	"bytes"
	"os"

	"github.com/go-kratos/kratos/v2/log"

	mmap "github.com/edsrzf/mmap-go"
)

// FileKind discriminates the two container formats.
type FileKind int

const (
	// KindUnknown is reported before Parse, or when no magic matched.
	KindUnknown FileKind = iota

	// KindClass is a JVM class file.
	KindClass

	// KindDex is an Android DEX file.
	KindDex
)

// String stringifies the file kind.
func (k FileKind) String() string {
	kindMap := map[FileKind]string{
		KindUnknown: "Unknown",
		KindClass:   "Class",
		KindDex:     "Dex",
	}
	return kindMap[k]
}

// Anomaly strings collected during parsing.
const (
	// AnoDexChecksumMismatch is recorded when the header digests do not
	// match the file contents.
	AnoDexChecksumMismatch = "dex header checksum does not match file contents"
)

// A File represents an open class or DEX file.
type File struct {
	Kind  FileKind   `json:"kind"`
	Class *ClassFile `json:"class,omitempty"`
	Dex   *DexFile   `json:"dex,omitempty"`

	Anomalies []string `json:"anomalies,omitempty"`

	data   mmap.MMap
	size   uint32
	f      *os.File
	opts   *Options
	logger *log.Helper
}

// Options for parsing.
type Options struct {

	// Parse only the containers and skip the per-attribute second pass, by
	// default (false).
	Fast bool

	// Disable DEX header checksum validation, by default (false).
	DisableChecksumValidation bool

	// A custom logger.
	Logger log.Logger
}

// New instantiates a file instance with options given a file name.
func New(name string, opts *Options) (*File, error) {

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	// Memory map the file instead of using read/write.
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}

	file := File{}
	if opts != nil {
		file.opts = opts
	} else {
		file.opts = &Options{}
	}
	file.initLogger()

	file.data = data
	file.size = uint32(len(file.data))
	file.f = f
	return &file, nil
}

// NewBytes instantiates a file instance with options given a memory buffer.
func NewBytes(data []byte, opts *Options) (*File, error) {

	file := File{}
	if opts != nil {
		file.opts = opts
	} else {
		file.opts = &Options{}
	}
	file.initLogger()

	file.data = data
	file.size = uint32(len(file.data))
	return &file, nil
}

func (f *File) initLogger() {
	if f.opts.Logger == nil {
		logger := log.NewStdLogger(os.Stdout)
		f.logger = log.NewHelper(log.NewFilter(logger,
			log.FilterLevel(log.LevelError)))
	} else {
		f.logger = log.NewHelper(f.opts.Logger)
	}
}

// Close closes the File.
func (f *File) Close() error {
	if f.data != nil {
		_ = f.data.Unmap()
	}

	if f.f != nil {
		return f.f.Close()
	}
	return nil
}

// Parse sniffs the magic and decodes the matching container.
func (f *File) Parse() error {
	switch f.SniffKind() {
	case KindClass:
		f.Kind = KindClass
		return f.ParseClass()
	case KindDex:
		f.Kind = KindDex
		return f.ParseDex()
	}
	return ErrUnknownFileKind
}

// SniffKind inspects the leading magic without consuming anything.
func (f *File) SniffKind() FileKind {
	if len(f.data) >= 4 {
		if uint32(f.data[0])<<24|uint32(f.data[1])<<16|
			uint32(f.data[2])<<8|uint32(f.data[3]) == ClassMagic {
			return KindClass
		}
		if bytes.HasPrefix(f.data, dexMagicPrefix) {
			return KindDex
		}
	}
	return KindUnknown
}

// Node resolves the parsed class file into its node model. The raw model
// must have been produced by Parse first.
func (f *File) Node() (*ClassNode, error) {
	if f.Class == nil {
		return nil, errResolveNode("no parsed class file, call Parse first")
	}
	return NodeFromClass(f.Class)
}
