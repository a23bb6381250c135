/*
Copyright 2025 Flant JSC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package xorg

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Device is a Device section read from an existing xorg.conf.
type Device struct {
	Identifier string
	Driver     string
	// BusID is the raw value as written in the file.
	BusID string
}

// Config holds the parts of xorg.conf the reconciler reads.
type Config struct {
	Devices []Device
}

// Parse reads the Device sections of an xorg.conf. Other sections, unknown
// options and comments are skipped.
func Parse(r io.Reader) (*Config, error) {
	cfg := &Config{}
	var (
		current   *Device
		inSection bool
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		tokens := tokenize(scanner.Text())
		if len(tokens) == 0 {
			continue
		}
		keyword := strings.ToLower(tokens[0])
		switch {
		case keyword == "section":
			inSection = true
			if len(tokens) > 1 && strings.EqualFold(tokens[1], "Device") {
				current = &Device{}
			}
		case keyword == "endsection":
			if current != nil {
				cfg.Devices = append(cfg.Devices, *current)
			}
			current = nil
			inSection = false
		case current != nil && len(tokens) > 1:
			switch keyword {
			case "identifier":
				current.Identifier = tokens[1]
			case "driver":
				current.Driver = tokens[1]
			case "busid":
				current.BusID = tokens[1]
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read xorg.conf: %w", err)
	}
	// An unterminated Device section still counts.
	if inSection && current != nil {
		cfg.Devices = append(cfg.Devices, *current)
	}
	return cfg, nil
}

// ParseString is Parse over in-memory text.
func ParseString(text string) *Config {
	cfg, _ := Parse(strings.NewReader(text))
	return cfg
}

// tokenize splits a line into words and quoted strings, dropping comments.
func tokenize(line string) []string {
	var (
		tokens  []string
		current strings.Builder
		quoted  bool
		pending bool
	)
	flush := func() {
		if pending {
			tokens = append(tokens, current.String())
			current.Reset()
			pending = false
		}
	}
	for _, r := range line {
		switch {
		case r == '"':
			if quoted {
				quoted = false
				pending = true
				flush()
				continue
			}
			flush()
			quoted = true
			pending = true
		case quoted:
			current.WriteRune(r)
		case r == '#':
			flush()
			return tokens
		case r == ' ' || r == '\t':
			flush()
		default:
			current.WriteRune(r)
			pending = true
		}
	}
	flush()
	return tokens
}
