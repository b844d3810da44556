package dump

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tilekit/tmx"
)

func TestFdump(t *testing.T) {
	doc := `<map orientation="orthogonal" width="2" height="1" tilewidth="16" tileheight="16">
 <tileset firstgid="1" name="terrain" tilewidth="16" tileheight="16" tilecount="2" columns="2">
  <image source="terrain.png" width="32" height="16"/>
 </tileset>
 <layer id="1" name="ground" width="2" height="1">
  <data encoding="csv">1,0</data>
 </layer>
 <objectgroup id="2" name="things">
  <object id="1" name="spawn" x="1" y="1"><point/></object>
 </objectgroup>
</map>`
	m, err := tmx.ParseMap(strings.NewReader(doc), "")
	if err != nil {
		t.Fatalf("ParseMap: %v", err)
	}

	var buf bytes.Buffer
	if err := Fdump(&buf, m); err != nil {
		t.Fatalf("Fdump: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"orthogonal 2x1",
		`tileset "terrain": firstgid=1 count=2 (embedded)`,
		`tile layer "ground": 2x1, 1 cell(s) set`,
		`object group "things": 1 object(s)`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
