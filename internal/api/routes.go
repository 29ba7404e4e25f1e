package api

// setupRoutes configures all API routes
func (s *Server) setupRoutes(auth *Authenticator) {
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/health", s.handleHealth)

		protected := v1.Group("", auth.Middleware())
		{
			protected.GET("/model", s.handleModel)
			protected.GET("/catalogue", s.handleCatalogue)

			protected.POST("/assess", s.handleAssess)
			protected.POST("/recommend", s.handleRecommend)
			protected.POST("/recommend/enriched", s.handleRecommendEnriched)
			protected.POST("/query", s.handleQuery)

			protected.GET("/consultations", s.handleListConsultations)
			protected.GET("/consultations/:id", s.handleGetConsultation)
		}
	}

	s.router.GET("/", s.handleRoot)
}
