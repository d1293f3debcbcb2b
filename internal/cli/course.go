package cli

import (
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"
)

func newCourseCmd() *cobra.Command {
	var (
		pbf   string
		river string
		ways  bool
	)

	cmd := &cobra.Command{
		Use:   "course",
		Short: "Extract a river course from an OSM extract as GeoJSON",
		Example: `  tracer course --pbf brazil.osm.pbf --river "Rio Negro" > negro.geojson
  tracer course --pbf extract.osm --river "Rio Negro" --ways`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := parseCourse(cmd, pbf, river)
			if err != nil {
				return err
			}

			fc := geojson.NewFeatureCollection()
			course := geojson.NewFeature(res.Course)
			course.Properties["name"] = river
			course.Properties["role"] = "course"
			fc.Append(course)
			if ways {
				for _, w := range res.Ways {
					f := geojson.NewFeature(w.Line)
					f.ID = int64(w.ID)
					f.Properties["name"] = w.Name
					f.Properties["waterway"] = w.Kind
					fc.Append(f)
				}
			}
			return writeJSON(cmd, "", fc)
		},
	}

	cmd.Flags().StringVar(&pbf, "pbf", "", "OSM extract (.osm.pbf, or .osm XML)")
	cmd.Flags().StringVar(&river, "river", "", "waterway name")
	cmd.Flags().BoolVar(&ways, "ways", false, "also emit every matched way")
	cmd.MarkFlagRequired("pbf")

	return cmd
}
