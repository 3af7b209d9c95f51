package model

import (
	"github.com/YuminosukeSato/gemprep/dataset"
	"gonum.org/v1/gonum/mat"
)

// Transformer は数値行列を受け取り数値行列を返す変換のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform は学習済みパラメータでデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// FrameTransformer はテキスト列のままデータセットを変換するインターフェース
// （最頻値補完など、数値化の前に行う処理）
type FrameTransformer interface {
	// FitFrame は変換に必要なパラメータを学習する
	FitFrame(X *dataset.Dataset) error

	// TransformFrame は学習済みパラメータでデータセットを変換する
	TransformFrame(X *dataset.Dataset) (*dataset.Dataset, error)
}

// FrameEncoder はテキスト列を数値行列へ符号化するインターフェース
type FrameEncoder interface {
	// FitFrame は符号化に必要なパラメータを学習・検証する
	FitFrame(X *dataset.Dataset) error

	// EncodeFrame はデータセットを数値行列へ符号化する
	EncodeFrame(X *dataset.Dataset) (mat.Matrix, error)
}
