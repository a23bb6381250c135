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
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/plan"
)

// The last section is the GPU that renders, the others are inactive.
const configTemplate = `# Generated by gpu-manager. Do not edit.
{{- $primary := last .Sections }}

Section "ServerLayout"
    Identifier "layout"
    Screen 0 {{ $primary.Identifier | quote }}
{{- range initial .Sections }}
    Inactive {{ .Identifier | quote }}
{{- end }}
EndSection
{{ range .Sections }}
Section "Device"
    Identifier {{ .Identifier | quote }}
    Driver {{ .Driver | quote }}
    BusID {{ .BusID | quote }}
EndSection

Section "Screen"
    Identifier {{ .Identifier | quote }}
    Device {{ .Identifier | quote }}
EndSection
{{ end -}}
`

var tmpl = template.Must(template.New("xorg.conf").Funcs(sprig.TxtFuncMap()).Parse(configTemplate))

type sectionData struct {
	Identifier string
	Driver     string
	BusID      string
}

// Render produces a dual GPU xorg.conf. Bus IDs use the PCI:B@DOM:D:F form.
func Render(sections []plan.Section) ([]byte, error) {
	if len(sections) == 0 {
		return nil, fmt.Errorf("render xorg.conf: no device sections")
	}
	data := struct{ Sections []sectionData }{}
	for _, section := range sections {
		data.Sections = append(data.Sections, sectionData{
			Identifier: section.Identifier,
			Driver:     section.Driver,
			BusID:      section.BusID.XorgMulti(),
		})
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render xorg.conf: %w", err)
	}
	return buf.Bytes(), nil
}
