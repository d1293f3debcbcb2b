package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"river_tracer/pkg/osm"
	"river_tracer/pkg/pipeline"
)

type traceOpts struct {
	job       string
	coursePBF string
	river     string
	jump      int
	out       string
}

func newTraceCmd() *cobra.Command {
	var opts traceOpts

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Trace the centerline of one job file",
		Long: `Trace reads a JSON job (raster, lat, lon, course or start/end pixels,
direction) and writes the traced path as JSON. The course can instead be
taken from an OSM extract with --course-pbf and --river.`,
		Example: `  tracer trace --job job.json
  tracer trace --job job.json --course-pbf brazil.osm.pbf --river "Rio Negro" -o path.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.job, "job", "j", "", "job JSON file, - for stdin")
	cmd.Flags().StringVar(&opts.coursePBF, "course-pbf", "", "OSM extract to take the course from")
	cmd.Flags().StringVar(&opts.river, "river", "", "waterway name to select from --course-pbf")
	cmd.Flags().IntVar(&opts.jump, "jump", -1, "jump radius override (-1 keeps the configured value)")
	cmd.Flags().StringVarP(&opts.out, "output", "o", "", "output file (default stdout)")
	cmd.MarkFlagRequired("job")

	return cmd
}

func runTrace(cmd *cobra.Command, opts traceOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	cfg := configFromContext(ctx)

	job, err := readJob(cmd, opts.job)
	if err != nil {
		return err
	}
	if opts.jump >= 0 {
		job.Jump = &opts.jump
	}

	if opts.coursePBF != "" {
		res, err := parseCourse(cmd, opts.coursePBF, opts.river)
		if err != nil {
			return err
		}
		job.Course = geojson.NewGeometry(res.Course)
	}

	result, err := pipeline.New(cfg, logger).Trace(ctx, job)
	if err != nil {
		return err
	}
	return writeJSON(cmd, opts.out, result)
}

func readJob(cmd *cobra.Command, path string) (*pipeline.Job, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var job pipeline.Job
	if err := json.NewDecoder(r).Decode(&job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", path, err)
	}
	return &job, nil
}

func parseCourse(cmd *cobra.Command, path, river string) (*osm.ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return osm.ParseWaterway(cmd.Context(), f, osm.ParseOptions{
		Name:   river,
		Format: osm.FormatFromPath(path),
		Logger: loggerFromContext(cmd.Context()),
	})
}

func writeJSON(cmd *cobra.Command, path string, v any) error {
	w := cmd.OutOrStdout()
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
