package cmd

import (
	"context"

	"github.com/cottand/gowhat/exercise"
	"github.com/cottand/gowhat/internal/log"
)

var cmdLogger = log.DefaultLogger.With("section", "cmd")

func grade(ctx context.Context, path string) graded {
	res := graded{Path: path}
	ex, err := exercise.Load(path)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	res.Name, res.code = ex.Name, ex.Student

	payload, err := ex.Grade(ctx)
	if err != nil {
		cmdLogger.Warn("exercise could not be graded", "path", path, "err", err)
		res.Err = err.Error()
		return res
	}
	res.Payload = &payload
	return res
}
