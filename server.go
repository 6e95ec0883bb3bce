package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func newServeCmd() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve summaries over HTTP",
		Long: `Serve summaries over HTTP.

Every request produces a one-shot summary for the requested window:
  GET /summaries/journal?today=true
  GET /summaries/s3/:object_key?start=2025-08-01T00:00:00&end=2025-08-02T00:00:00
  GET /summaries/files/:filename?preset=yesterday&geoip=true`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg, err := newConfig()
			if err != nil {
				return err
			}
			if address != "" {
				cfg.Server.Address = address
			}
			logger := newLogger(cfg.Log, cmd.ErrOrStderr())

			smr, err := newSummarizer(append(cfg.summarizerOptions(), summarizerWithLogger(logger))...)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, smr.Close()) }()

			var s3Client s3GetObjectAPI
			if cfg.S3.Bucket != "" {
				if s3Client, err = newS3Client(cmd.Context(), cfg.S3); err != nil {
					return err
				}
			}

			logger.Info().Str("address", cfg.Server.Address).Msg("serving summaries")
			return newServer(smr, cfg, s3Client, logger).Run(cfg.Server.Address)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "Listen address (default from TARPIT_SUMMARY_SERVER_ADDRESS or :8080)")
	return cmd
}

type server struct {
	smr      *summarizer
	cfg      *config
	s3Client s3GetObjectAPI
	logger   zerolog.Logger
	now      func() time.Time
}

func newServer(smr *summarizer, cfg *config, s3Client s3GetObjectAPI, logger zerolog.Logger) *gin.Engine {
	srv := &server{smr: smr, cfg: cfg, s3Client: s3Client, logger: logger, now: time.Now}
	return srv.engine()
}

func (srv *server) engine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.UseRawPath = true
	r.UnescapePathValues = true

	r.GET("/summaries/journal", func(c *gin.Context) {
		src := &journalSource{
			Command: srv.cfg.Journal.Command,
			Unit:    srv.cfg.Journal.Unit,
			User:    srv.cfg.Journal.User,
		}
		srv.summarize(c, src)
	})

	r.GET("/summaries/s3/:object_key", func(c *gin.Context) {
		if srv.s3Client == nil {
			c.String(http.StatusNotFound, "s3 is not configured")
			return
		}
		srv.summarize(c, &s3Source{Client: srv.s3Client, Bucket: srv.cfg.S3.Bucket, Key: c.Param("object_key")})
	})

	r.GET("/summaries/files/:filename", func(c *gin.Context) {
		if srv.cfg.Server.LogDir == "" {
			c.String(http.StatusNotFound, "log directory is not configured")
			return
		}
		path, ok := srv.logFile(c.Param("filename"))
		if !ok {
			c.String(http.StatusNotFound, "log file not found")
			return
		}
		srv.summarize(c, &fileSource{Path: path})
	})

	return r
}

func (srv *server) summarize(c *gin.Context, src logSource) {
	w, geo, err := srv.parseQuery(c)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	s, err := srv.smr.Summarize(c.Request.Context(), src, w, geo)
	if err != nil {
		srv.logger.Error().Err(err).Stringer("source", src).Msg("summary failed")
		c.String(http.StatusInternalServerError, "error producing summary, see server log")
		return
	}

	c.JSON(http.StatusOK, s.toResponse())
}

// logFile resolves name to a regular file directly inside the log directory.
func (srv *server) logFile(name string) (string, bool) {
	name = filepath.Base(name)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return "", false
	}

	path := filepath.Join(srv.cfg.Server.LogDir, name)
	if fi, err := os.Stat(path); err == nil && !fi.Mode().IsRegular() {
		return "", false
	}
	return path, true
}

func (srv *server) parseQuery(c *gin.Context) (w window, geo bool, err error) {
	if v := c.Query("geoip"); v != "" {
		if geo, err = strconv.ParseBool(v); err != nil {
			return w, false, usageError{fmt.Errorf("invalid geoip value %q", v)}
		}
	}

	if preset := c.Query("preset"); preset != "" {
		if c.Query("start") != "" || c.Query("end") != "" {
			return w, false, usageError{errors.New("preset cannot be combined with start or end")}
		}
		w, err = windowFromPreset(preset, srv.now())
		return w, geo, err
	}

	w, err = resolveWindow(windowOptions{
		Start:     c.Query("start"),
		End:       c.Query("end"),
		Today:     c.Query("today") == "true",
		Yesterday: c.Query("yesterday") == "true",
	}, srv.now())
	return w, geo, err
}
