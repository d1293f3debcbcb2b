package osm

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

func TestIsWaterway(t *testing.T) {
	tests := []struct {
		name   string
		tags   osm.Tags
		filter string
		want   bool
	}{
		{
			name: "river",
			tags: osm.Tags{{Key: "waterway", Value: "river"}},
			want: true,
		},
		{
			name: "stream",
			tags: osm.Tags{{Key: "waterway", Value: "stream"}},
			want: true,
		},
		{
			name: "canal",
			tags: osm.Tags{{Key: "waterway", Value: "canal"}},
			want: true,
		},
		{
			name: "riverbank (not a course)",
			tags: osm.Tags{{Key: "waterway", Value: "riverbank"}},
			want: false,
		},
		{
			name: "dam",
			tags: osm.Tags{{Key: "waterway", Value: "dam"}},
			want: false,
		},
		{
			name: "area=yes",
			tags: osm.Tags{
				{Key: "waterway", Value: "river"},
				{Key: "area", Value: "yes"},
			},
			want: false,
		},
		{
			name: "road",
			tags: osm.Tags{{Key: "highway", Value: "residential"}},
			want: false,
		},
		{
			name:   "name matches",
			tags:   osm.Tags{{Key: "waterway", Value: "river"}, {Key: "name", Value: "Rio Negro"}},
			filter: "Rio Negro",
			want:   true,
		},
		{
			name:   "name differs",
			tags:   osm.Tags{{Key: "waterway", Value: "river"}, {Key: "name", Value: "Rio Branco"}},
			filter: "Rio Negro",
			want:   false,
		},
		{
			name:   "unnamed with filter",
			tags:   osm.Tags{{Key: "waterway", Value: "river"}},
			filter: "Rio Negro",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isWaterway(tt.tags, tt.filter)
			if got != tt.want {
				t.Errorf("isWaterway() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChainWays(t *testing.T) {
	tests := []struct {
		name string
		ways [][]osm.NodeID
		want []osm.NodeID
	}{
		{
			name: "single way",
			ways: [][]osm.NodeID{{1, 2, 3}},
			want: []osm.NodeID{1, 2, 3},
		},
		{
			name: "tail to head",
			ways: [][]osm.NodeID{{1, 2}, {2, 3, 4}},
			want: []osm.NodeID{1, 2, 3, 4},
		},
		{
			name: "reversed second way",
			ways: [][]osm.NodeID{{1, 2}, {4, 3, 2}},
			want: []osm.NodeID{1, 2, 3, 4},
		},
		{
			name: "prepend",
			ways: [][]osm.NodeID{{3, 4}, {1, 2, 3}},
			want: []osm.NodeID{1, 2, 3, 4},
		},
		{
			name: "prepend reversed",
			ways: [][]osm.NodeID{{3, 4}, {3, 2, 1}},
			want: []osm.NodeID{1, 2, 3, 4},
		},
		{
			name: "out of order",
			ways: [][]osm.NodeID{{3, 4}, {5, 6}, {4, 5}, {1, 2, 3}},
			want: []osm.NodeID{1, 2, 3, 4, 5, 6},
		},
		{
			name: "longest of two disjoint chains",
			ways: [][]osm.NodeID{{1, 2}, {10, 11}, {11, 12, 13}},
			want: []osm.NodeID{10, 11, 12, 13},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ways := make([]Waterway, len(tt.ways))
			for i, ids := range tt.ways {
				ways[i] = Waterway{NodeIDs: ids}
			}
			got := ChainWays(ways)
			if len(got) != len(tt.want) {
				t.Fatalf("ChainWays() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("ChainWays() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

const testExtract = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <node id="1" lat="-3.10" lon="-60.30"/>
  <node id="2" lat="-3.05" lon="-60.20"/>
  <node id="3" lat="-3.00" lon="-60.10"/>
  <node id="4" lat="-3.20" lon="-60.00"/>
  <node id="5" lat="-3.25" lon="-60.05"/>
  <way id="10">
    <nd ref="1"/>
    <nd ref="2"/>
    <tag k="waterway" v="river"/>
    <tag k="name" v="Rio Negro"/>
  </way>
  <way id="11">
    <nd ref="3"/>
    <nd ref="2"/>
    <tag k="waterway" v="river"/>
    <tag k="name" v="Rio Negro"/>
  </way>
  <way id="12">
    <nd ref="4"/>
    <nd ref="5"/>
    <tag k="highway" v="residential"/>
  </way>
  <way id="13">
    <nd ref="4"/>
    <nd ref="5"/>
    <tag k="waterway" v="stream"/>
  </way>
</osm>`

func parseTestExtract(t *testing.T, name string) (*ParseResult, error) {
	t.Helper()
	return ParseWaterway(context.Background(), strings.NewReader(testExtract), ParseOptions{
		Name:   name,
		Format: FormatXML,
		Logger: log.New(io.Discard),
	})
}

func TestParseWaterwayByName(t *testing.T) {
	res, err := parseTestExtract(t, "Rio Negro")
	if err != nil {
		t.Fatalf("ParseWaterway: %v", err)
	}
	if len(res.Ways) != 2 {
		t.Fatalf("len(Ways) = %d, want 2", len(res.Ways))
	}
	if res.Ways[0].ID != 10 || res.Ways[0].Kind != "river" || res.Ways[0].Name != "Rio Negro" {
		t.Errorf("Ways[0] = %+v", res.Ways[0])
	}

	want := orb.LineString{{-60.30, -3.10}, {-60.20, -3.05}, {-60.10, -3.00}}
	if len(res.Course) != len(want) {
		t.Fatalf("Course = %v, want %v", res.Course, want)
	}
	for i := range want {
		if !res.Course[i].Equal(want[i]) {
			t.Errorf("Course[%d] = %v, want %v", i, res.Course[i], want[i])
		}
	}
}

func TestParseWaterwayAllKinds(t *testing.T) {
	res, err := parseTestExtract(t, "")
	if err != nil {
		t.Fatalf("ParseWaterway: %v", err)
	}
	if len(res.Ways) != 3 {
		t.Fatalf("len(Ways) = %d, want 3", len(res.Ways))
	}
	if len(res.Course) != 3 {
		t.Errorf("len(Course) = %d, want the three-node river chain", len(res.Course))
	}
	if len(res.Ways[2].Line) != 2 {
		t.Errorf("stream line = %v, want 2 points", res.Ways[2].Line)
	}
}

func TestParseWaterwayNoMatch(t *testing.T) {
	_, err := parseTestExtract(t, "Amazonas")
	if !errors.Is(err, ErrNoWaterway) {
		t.Errorf("err = %v, want ErrNoWaterway", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	if FormatFromPath("brazil-latest.osm.pbf") != FormatPBF {
		t.Error("pbf extract should use FormatPBF")
	}
	if FormatFromPath("extract.osm") != FormatXML {
		t.Error(".osm extract should use FormatXML")
	}
}
