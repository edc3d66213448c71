package contracts

import "context"

// Interpreter turns a free-text query into an Interpretation
// ⭐ SSOT: 질의 해석 인터페이스
// 업스트림 장애는 error 가 아니라 Notice 로 기록
type Interpreter interface {
	Interpret(ctx context.Context, query string) Interpretation
}

// UniverseSource supplies the candidate records for an intent
// ⭐ SSOT: 유니버스 생성 인터페이스
type UniverseSource interface {
	Build(ctx context.Context, intent Intent) (*Universe, error)
}

// QueryRecorder persists screening requests (query history)
type QueryRecorder interface {
	Record(ctx context.Context, sessionID, query string, result *ScreenResult) error
}
