package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// StageObserver is told about every follow-up stage that failed.
type StageObserver interface {
	StageFailed(mutation, stage string)
}

type Pipeline struct {
	Logger   *zap.Logger
	Observer StageObserver
}

func NewPipeline(logger *zap.Logger, observer StageObserver) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{Logger: logger, Observer: observer}
}

type Stage struct {
	Name string
	Fn   func(context.Context) error
}

// Mutation is one primary write followed by best-effort stages. Stages only
// run after the primary write succeeded, and a failing stage never fails the
// mutation or stops the stages after it.
type Mutation struct {
	pipeline *Pipeline
	name     string
	primary  func(context.Context) error
	stages   []Stage
	fields   []zap.Field
}

func (p *Pipeline) Mutation(name string, primary func(context.Context) error, fields ...zap.Field) *Mutation {
	return &Mutation{
		pipeline: p,
		name:     name,
		primary:  primary,
		fields:   fields,
	}
}

func (m *Mutation) Then(name string, fn func(context.Context) error) *Mutation {
	m.stages = append(m.stages, Stage{name, fn})
	return m
}

func (m *Mutation) Execute(ctx context.Context) error {
	if err := m.primary(ctx); err != nil {
		return fmt.Errorf("%s: %w", m.name, err)
	}

	for _, stage := range m.stages {
		m.pipeline.runStage(ctx, m.name, stage, m.fields...)
	}

	return nil
}

// runStage executes one best-effort stage. Its error is logged and dropped.
func (p *Pipeline) runStage(ctx context.Context, mutation string, stage Stage, fields ...zap.Field) {
	err := stage.Fn(ctx)
	if err == nil {
		return
	}

	p.Logger.Warn("best-effort stage failed",
		append([]zap.Field{
			zap.String("mutation", mutation),
			zap.String("stage", stage.Name),
			zap.Error(err),
		}, fields...)...,
	)
	if p.Observer != nil {
		p.Observer.StageFailed(mutation, stage.Name)
	}
}

// fail logs err at a level matching its kind and converts it to a Result.
func (p *Pipeline) fail(operation string, err error, message string) Result {
	if IsDomainError(err) {
		p.Logger.Info("operation rejected", zap.String("operation", operation), zap.Error(err))
	} else {
		p.Logger.Error("operation failed", zap.String("operation", operation), zap.Error(err))
	}
	return failed(err, message)
}
