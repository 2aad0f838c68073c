package analysis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/ascendia/internal/analysis"
	"github.com/MrJamesThe3rd/ascendia/internal/investec"
)

var (
	august    = time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	endAugust = time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)
)

func TestService_Analyse(t *testing.T) {
	txs := []investec.Transaction{
		{
			Type:        investec.TypeDebit,
			Description: "UBER TRIP",
			PostingDate: investec.NewDate(august),
			Amount:      decimal.NewFromFloat(87.5),
		},
	}

	type testCase struct {
		name     string
		params   analysis.AnalyseParams
		setupGen func(m *analysis.MockGenerator)
		want     string
		wantErr  error
	}

	tests := []testCase{
		{
			name:   "Success",
			params: analysis.AnalyseParams{Transactions: txs, From: august, To: endAugust},
			setupGen: func(m *analysis.MockGenerator) {
				m.EXPECT().
					Generate(gomock.Any(), analysis.SystemPrompt, analysis.BuildPrompt(txs, august, endAugust)).
					Return("**Summary**\n- R87.50 on transport", nil)
			},
			want: "**Summary**\n- R87.50 on transport",
		},
		{
			name:    "NoTransactions",
			params:  analysis.AnalyseParams{From: august, To: endAugust},
			wantErr: analysis.ErrNoTransactions,
		},
		{
			name:   "GeneratorError",
			params: analysis.AnalyseParams{Transactions: txs, From: august, To: endAugust},
			setupGen: func(m *analysis.MockGenerator) {
				m.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).Return("", context.DeadlineExceeded)
			},
			wantErr: context.DeadlineExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			gen := analysis.NewMockGenerator(ctrl)
			if tt.setupGen != nil {
				tt.setupGen(gen)
			}

			svc := analysis.NewService(analysis.NewMockRepository(ctrl), gen)
			got, err := svc.Analyse(context.Background(), tt.params)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Save(t *testing.T) {
	type testCase struct {
		name       string
		params     analysis.SaveParams
		setupMock  func(m *analysis.MockRepository)
		wantErr    error
		wantAnyErr bool
	}

	valid := analysis.SaveParams{UserID: "user-1", Content: "**Summary**", From: august, To: endAugust}

	tests := []testCase{
		{
			name:   "Success",
			params: valid,
			setupMock: func(m *analysis.MockRepository) {
				m.EXPECT().
					CreateAnalysis(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, a *analysis.Analysis) error {
						assert.Equal(t, "user-1", a.UserID)
						assert.Equal(t, "**Summary**", a.Content)
						assert.Equal(t, august, a.From)
						assert.Equal(t, endAugust, a.To)

						a.ID = uuid.New()
						a.CreatedAt = time.Now()

						return nil
					})
			},
		},
		{
			name:    "EmptyContent",
			params:  analysis.SaveParams{UserID: "user-1", From: august, To: endAugust},
			wantErr: analysis.ErrEmptyAnalysis,
		},
		{
			name:    "MissingDates",
			params:  analysis.SaveParams{UserID: "user-1", Content: "x"},
			wantErr: analysis.ErrInvalidRange,
		},
		{
			name:    "FromAfterTo",
			params:  analysis.SaveParams{UserID: "user-1", Content: "x", From: endAugust, To: august},
			wantErr: analysis.ErrInvalidRange,
		},
		{
			name:   "RepoError",
			params: valid,
			setupMock: func(m *analysis.MockRepository) {
				m.EXPECT().CreateAnalysis(gomock.Any(), gomock.Any()).Return(errors.New("db error"))
			},
			wantAnyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := analysis.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := analysis.NewService(repo, analysis.NewMockGenerator(ctrl))
			got, err := svc.Save(context.Background(), tt.params)

			if tt.wantErr != nil || tt.wantAnyErr {
				require.Error(t, err)
				assert.Nil(t, got)

				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}

				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, got.ID)
		})
	}
}

func TestService_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := analysis.NewMockRepository(ctrl)
	repo.EXPECT().ListAnalyses(gomock.Any(), "user-1").Return([]*analysis.Analysis{
		{ID: uuid.New(), UserID: "user-1"},
		{ID: uuid.New(), UserID: "user-1"},
	}, nil)

	svc := analysis.NewService(repo, analysis.NewMockGenerator(ctrl))

	got, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
