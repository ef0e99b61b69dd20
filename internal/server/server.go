package server

// Server aggregates the entity-specific HTTP servers behind one route
// registrar. ProgramServer owns the authoring surface, CalcServer the
// computation surface.
type Server struct {
	ProgramServer
	CalcServer
}

func NewServer(
	programServer ProgramServer,
	calcServer CalcServer,
) Server {
	return Server{
		ProgramServer: programServer,
		CalcServer:    calcServer,
	}
}
