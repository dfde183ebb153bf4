package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/gogpu/euclase"
)

// config describes one run of the pipeline: load, select, paint, filter,
// flatten and save.
type config struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Format  string `json:"format"`
	Device  string `json:"device"`
	Input   string `json:"input"`
	Output  string `json:"output"`
	Quality int    `json:"quality"`
	Workers int    `json:"workers"`

	Selection []selectStep `json:"selection"`
	Strokes   []stroke     `json:"strokes"`
	Filters   []filterStep `json:"filters"`
	View      *view        `json:"view"`
}

type selectStep struct {
	Op   string `json:"op"`
	Rect [4]int `json:"rect"`
}

type stroke struct {
	Color string `json:"color"`
	// Mix blends Color toward this colour by MixAmount, 0..1.
	Mix       string       `json:"mix"`
	MixAmount float64      `json:"mix_amount"`
	Opacity   int          `json:"opacity"`
	Radius    float64      `json:"radius"`
	Hardness  float64      `json:"hardness"`
	Eraser    bool         `json:"eraser"`
	Points    [][2]float64 `json:"points"`
}

type filterStep struct {
	Name   string             `json:"name"`
	Params map[string]float64 `json:"params"`
}

// view renders a viewport through the background scheduler.
type view struct {
	Rect    [4]int  `json:"rect"`
	Scale   float64 `json:"scale"`
	Output  string  `json:"output"`
	Outline bool    `json:"outline"`
}

func defaultConfig() config {
	return config{
		Width:   1024,
		Height:  768,
		Format:  "rgba8",
		Device:  "none",
		Output:  "out.png",
		Quality: 90,
	}
}

// loadConfig reads the JSON file at path over the defaults. Unknown fields
// are rejected so typos surface.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer fh.Close()

	dec := json.NewDecoder(fh)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *config) validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid size %dx%d", c.Width, c.Height))
	}
	switch c.Device {
	case "none", "software", "hal":
	default:
		errs = append(errs, fmt.Errorf("unknown device %q", c.Device))
	}
	if c.Output == "" {
		errs = append(errs, errors.New("no output file"))
	}
	for i, s := range c.Strokes {
		if len(s.Points) == 0 {
			errs = append(errs, fmt.Errorf("stroke %d has no points", i))
		}
	}
	for i, s := range c.Selection {
		if _, err := parseSelectOp(s.Op); err != nil {
			errs = append(errs, fmt.Errorf("selection %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func parseSelectOp(s string) (euclase.SelectionOp, error) {
	switch strings.ToLower(s) {
	case "set", "":
		return euclase.SelectSet, nil
	case "add":
		return euclase.SelectAdd, nil
	case "sub":
		return euclase.SelectSub, nil
	default:
		return 0, fmt.Errorf("unknown selection op %q", s)
	}
}

func rect(r [4]int) image.Rectangle {
	return image.Rect(r[0], r[1], r[2], r[3])
}
