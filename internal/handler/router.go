package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/spotomo/internal/middleware"
	"github.com/hitoshi/spotomo/internal/ws"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter
	Metrics           middleware.MetricsRecorder

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// プロフィール・検索
	UserService      UserServiceInterface
	DiscoveryService DiscoveryServiceInterface

	// フレンド関係
	FriendService FriendServiceInterface

	// イベントとライブ位置
	EventService        EventServiceInterface
	Membership          MembershipChecker
	LiveLocationService LiveLocationServiceInterface
	Hub                 *ws.Hub

	// 投稿・ジオコーディング
	PostService PostServiceInterface
	GeoService  GeoServiceInterface

	// 運用エンドポイント
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics
//	→ SessionMiddleware → CSRFMiddleware → RateLimitMiddleware(GeneralMiddleware)
//
// 認証ルート（/auth/*）と運用エンドポイントは認証ミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルートに効く共通ミドルウェア
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	userHandler := NewUserHandler(deps.UserService)
	discoveryHandler := NewDiscoveryHandler(deps.DiscoveryService)
	friendHandler := NewFriendHandler(deps.FriendService)
	eventHandler := NewEventHandler(deps.EventService)
	liveHandler := NewLiveLocationHandler(deps.LiveLocationService, deps.Membership, deps.Hub)
	postHandler := NewPostHandler(deps.PostService)
	geoHandler := NewGeoHandler(deps.GeoService)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// CSRFトークン取得（初回アクセス時にCookieとトークンを配る）
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// 認証ルート
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// プロフィール
		r.Route("/api/users", func(r chi.Router) {
			r.Get("/me", userHandler.GetMe)
			r.Patch("/me", userHandler.UpdateMe)
		})

		// パートナー検索
		r.Get("/api/partners", discoveryHandler.Search)

		// フレンド関係
		r.Route("/api/friends", func(r chi.Router) {
			// POST /api/friends/request - フレンド申請（申請専用レート制限を追加）
			r.With(deps.RateLimiter.FriendRequestMiddleware()).Post("/request", friendHandler.Request)
			r.Post("/accept", friendHandler.Accept)
			r.Get("/", friendHandler.ListFriends)
			r.Get("/requests", friendHandler.ListIncoming)
			r.Get("/status/{userID}", friendHandler.Status)
		})

		// イベントとライブ位置
		r.Route("/api/events", func(r chi.Router) {
			r.Post("/", eventHandler.Create)
			r.Get("/", eventHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", eventHandler.Get)
				r.Post("/join", eventHandler.Join)
				r.Delete("/leave", eventHandler.Leave)

				r.Put("/live-location", liveHandler.Publish)
				r.Delete("/live-location", liveHandler.Stop)
				r.Get("/live-locations", liveHandler.List)
				r.Get("/live-locations/ws", liveHandler.Watch)
			})
		})

		// 投稿
		r.Route("/api/posts", func(r chi.Router) {
			r.Post("/", postHandler.Create)
			r.Get("/", postHandler.Feed)
			r.Delete("/{id}", postHandler.Delete)
		})

		// 逆ジオコーディング
		r.Get("/api/geo/reverse", geoHandler.Reverse)
	})

	return r
}
