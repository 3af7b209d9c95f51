package preprocessing

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/YuminosukeSato/gemprep/core/model"
	"github.com/YuminosukeSato/gemprep/dataset"
	"github.com/YuminosukeSato/gemprep/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Unknown category policies.
const (
	HandleUnknownError           = "error"
	HandleUnknownUseEncodedValue = "use_encoded_value"
)

// OrdinalEncoder はカテゴリ列を宣言済みのカテゴリ順に従って整数コードへ変換する。
// i番目の列の値 v は Categories[i] 内での v の位置に符号化される。
// 欠損値はNaNのまま出力される
type OrdinalEncoder struct {
	// State は学習状態
	State *model.StateManager

	// Categories は列ごとの順序付きカテゴリ
	Categories [][]string

	// Columns は学習時に見た入力列名
	Columns []string

	// HandleUnknown は未知カテゴリの扱い ("error" または "use_encoded_value")
	HandleUnknown string

	// UnknownValue は HandleUnknown が "use_encoded_value" のときに使うコード
	UnknownValue float64

	codes []map[string]int
}

// EncoderOption はOrdinalEncoderの設定を変更する
type EncoderOption func(*OrdinalEncoder)

// WithUnknownValue は未知カテゴリを value に符号化し、警告を出すようにする
func WithUnknownValue(value float64) EncoderOption {
	return func(e *OrdinalEncoder) {
		e.HandleUnknown = HandleUnknownUseEncodedValue
		e.UnknownValue = value
	}
}

// WithHandleUnknown は未知カテゴリの扱いを名前で設定する
func WithHandleUnknown(policy string, unknownValue float64) EncoderOption {
	return func(e *OrdinalEncoder) {
		e.HandleUnknown = policy
		e.UnknownValue = unknownValue
	}
}

// NewOrdinalEncoder は固定カテゴリを持つOrdinalEncoderを作成する
//
// 使用例:
//
//	enc := preprocessing.NewOrdinalEncoder([][]string{{"Fair", "Good", "Ideal"}})
//	codes, err := enc.FitEncode(ds)
func NewOrdinalEncoder(categories [][]string, opts ...EncoderOption) *OrdinalEncoder {
	cats := make([][]string, len(categories))
	for i, c := range categories {
		cats[i] = append([]string(nil), c...)
	}
	e := &OrdinalEncoder{
		State:         model.NewStateManager(),
		Categories:    cats,
		HandleUnknown: HandleUnknownError,
		UnknownValue:  math.NaN(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *OrdinalEncoder) st() *model.StateManager {
	if e.State == nil {
		e.State = model.NewStateManager()
	}
	return e.State
}

// IsFitted は学習済みかどうかを返す
func (e *OrdinalEncoder) IsFitted() bool {
	return e.st().IsFitted()
}

// Validate はカテゴリ宣言と未知カテゴリ設定を検証する
func (e *OrdinalEncoder) Validate() error {
	if len(e.Categories) == 0 {
		return errors.NewValidationError("categories", "at least one column is required", len(e.Categories))
	}
	for i, cats := range e.Categories {
		if len(cats) == 0 {
			return errors.NewValidationError("categories", fmt.Sprintf("column %d has no categories", i), cats)
		}
		seen := make(map[string]struct{}, len(cats))
		for _, c := range cats {
			if dataset.IsMissing(c) {
				return errors.NewValidationError("categories", fmt.Sprintf("column %d declares a missing-value token", i), c)
			}
			if _, dup := seen[c]; dup {
				return errors.NewValidationError("categories", fmt.Sprintf("column %d declares '%s' twice", i, c), cats)
			}
			seen[c] = struct{}{}
		}
	}

	switch e.HandleUnknown {
	case HandleUnknownError:
	case HandleUnknownUseEncodedValue:
		u := e.UnknownValue
		if !math.IsNaN(u) && u == math.Trunc(u) {
			for i, cats := range e.Categories {
				if u >= 0 && int(u) < len(cats) {
					return errors.NewValidationError("unknown_value",
						fmt.Sprintf("collides with a category code of column %d", i), u)
				}
			}
		}
	default:
		return errors.NewValidationError("handle_unknown", "must be 'error' or 'use_encoded_value'", e.HandleUnknown)
	}
	return nil
}

func (e *OrdinalEncoder) lookup() []map[string]int {
	if len(e.codes) == len(e.Categories) {
		return e.codes
	}
	e.codes = make([]map[string]int, len(e.Categories))
	for i, cats := range e.Categories {
		e.codes[i] = make(map[string]int, len(cats))
		for code, c := range cats {
			e.codes[i][c] = code
		}
	}
	return e.codes
}

// FitFrame は入力列数とカテゴリ宣言が一致することを確認して学習済みにする。
// カテゴリは宣言済みのため、データから学習する値はない
func (e *OrdinalEncoder) FitFrame(X *dataset.Dataset) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if X.Nrow() == 0 {
		return errors.NewModelError("OrdinalEncoder.FitFrame", "empty data", errors.ErrEmptyData)
	}
	if X.Ncol() != len(e.Categories) {
		return errors.NewDimensionError("OrdinalEncoder.FitFrame", len(e.Categories), X.Ncol(), 1)
	}

	e.Columns = X.Names()
	e.codes = nil
	e.st().SetFitted(X.Ncol(), X.Nrow())

	if e.HandleUnknown != HandleUnknownError {
		return nil
	}
	if _, err := e.EncodeFrame(X); err != nil {
		e.st().Reset()
		return err
	}
	return nil
}

// EncodeFrame は各値を宣言済みカテゴリ内の位置に変換する
func (e *OrdinalEncoder) EncodeFrame(X *dataset.Dataset) (mat.Matrix, error) {
	if err := e.st().RequireFitted("OrdinalEncoder", "EncodeFrame"); err != nil {
		return nil, err
	}
	if err := e.st().RequireFeatures("OrdinalEncoder.EncodeFrame", X.Ncol()); err != nil {
		return nil, err
	}

	codes := e.lookup()
	out := mat.NewDense(X.Nrow(), len(e.Columns), nil)
	for j, col := range e.Columns {
		values, err := X.Strings(col)
		if err != nil {
			return nil, err
		}

		unknown := make(map[string]struct{})
		for i, v := range values {
			if dataset.IsMissing(v) {
				out.Set(i, j, math.NaN())
				continue
			}
			code, ok := codes[j][strings.TrimSpace(v)]
			if !ok {
				unknown[v] = struct{}{}
				out.Set(i, j, e.UnknownValue)
				continue
			}
			out.Set(i, j, float64(code))
		}

		if len(unknown) == 0 {
			continue
		}
		found := make([]string, 0, len(unknown))
		for v := range unknown {
			found = append(found, v)
		}
		sort.Strings(found)
		if e.HandleUnknown != HandleUnknownUseEncodedValue {
			return nil, errors.NewUnknownCategoryError(col, found)
		}
		errors.Warn(errors.NewUnknownCategoryWarning(col, found, e.UnknownValue))
	}
	return out, nil
}

// FitEncode はFitFrameとEncodeFrameを続けて実行する
func (e *OrdinalEncoder) FitEncode(X *dataset.Dataset) (mat.Matrix, error) {
	if err := e.FitFrame(X); err != nil {
		return nil, err
	}
	return e.EncodeFrame(X)
}

// FeatureNamesOut は入力列名をそのまま返す
func (e *OrdinalEncoder) FeatureNamesOut(input []string) []string {
	return append([]string(nil), input...)
}

// GetParams はエンコーダのパラメータを取得する
func (e *OrdinalEncoder) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"categories":     e.Categories,
		"handle_unknown": e.HandleUnknown,
		"unknown_value":  e.UnknownValue,
	}
}

// String はエンコーダの文字列表現を返す
func (e *OrdinalEncoder) String() string {
	return fmt.Sprintf("OrdinalEncoder(n_columns=%d, handle_unknown=%s)", len(e.Categories), e.HandleUnknown)
}
