// Package parser loads process descriptions into process records.
//
// Two formats are accepted. The text format has one process per line:
//
//	# arrival required [ioOffset ioDuration]...
//	1 5 2 2
//	3 4
//
// Process IDs follow line order starting at 0. The YAML format lists
// processes explicitly:
//
//	processes:
//	  - id: 0
//	    arrival: 1
//	    required: 5
//	    io:
//	      - {offset: 2, duration: 2}
package parser

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"github.com/me/ossim/pkg/model"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// Parser converts process descriptions into process records.
type Parser struct {
	fs        afs.Service
	validator *Validator
	logger    *slog.Logger
}

// New creates a Parser reading documents through afs.
func New(logger *slog.Logger) *Parser {
	return NewWithFS(afs.New(), logger)
}

// NewWithFS creates a Parser using the supplied afs service.
func NewWithFS(fs afs.Service, logger *slog.Logger) *Parser {
	return &Parser{
		fs:        fs,
		validator: NewValidator(logger),
		logger:    logger.With("component", "parser"),
	}
}

// entry is a parsed process with its source position for error reporting.
type entry struct {
	proc  *model.Process
	line  int    // text format
	field string // YAML format
}

// Load fetches the document at URL (a local path or any afs URL) and parses it.
func (p *Parser) Load(ctx context.Context, URL string) ([]*model.Process, error) {
	data, err := p.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, &model.ConfigError{Source: URL, Err: fmt.Errorf("read process description: %w", err)}
	}
	p.logger.Debug("process description loaded", "url", URL, "bytes", len(data))
	return p.Parse(data, URL)
}

// Parse parses and validates a process description. name is used to pick
// the format by extension and in error messages.
func (p *Parser) Parse(data []byte, name string) ([]*model.Process, error) {
	var (
		entries []entry
		err     error
	)
	if isYAML(data, name) {
		entries, err = parseYAML(data)
	} else {
		entries, err = parseText(data)
	}
	if err != nil {
		return nil, &model.ConfigError{Source: name, Err: err}
	}

	if errs := p.validator.Validate(entries); len(errs) > 0 {
		return nil, &model.ConfigError{Source: name, Details: errs}
	}

	procs := make([]*model.Process, len(entries))
	for i, e := range entries {
		procs[i] = e.proc
	}
	p.logger.Debug("process description parsed", "source", name, "processes", len(procs))
	return procs, nil
}

func isYAML(data []byte, name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte("processes:"))
}

func parseText(data []byte) ([]entry, error) {
	var entries []entry
	sc := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected arrival and required time", lineNo)
		}
		if len(fields)%2 != 0 {
			return nil, fmt.Errorf("line %d: I/O events need an offset and a duration", lineNo)
		}

		nums := make([]int, len(fields))
		for i, f := range fields {
			n, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("line %d: field %d: %q is not an integer", lineNo, i+1, f)
			}
			nums[i] = n
		}

		var events []model.IOEvent
		for i := 2; i < len(nums); i += 2 {
			events = append(events, model.IOEvent{Offset: nums[i], Duration: nums[i+1]})
		}
		entries = append(entries, entry{
			proc: model.NewProcess(len(entries), nums[0], nums[1], events...),
			line: lineNo,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

type yamlDocument struct {
	Processes []yamlProcess `yaml:"processes"`
}

type yamlProcess struct {
	ID       *int            `yaml:"id"`
	Arrival  int             `yaml:"arrival"`
	Required int             `yaml:"required"`
	IO       []model.IOEvent `yaml:"io"`
}

func parseYAML(data []byte) ([]entry, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}
	entries := make([]entry, 0, len(doc.Processes))
	for i, yp := range doc.Processes {
		id := i
		if yp.ID != nil {
			id = *yp.ID
		}
		entries = append(entries, entry{
			proc:  model.NewProcess(id, yp.Arrival, yp.Required, yp.IO...),
			field: fmt.Sprintf("processes[%d]", i),
		})
	}
	return entries, nil
}
