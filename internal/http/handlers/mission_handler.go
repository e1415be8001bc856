package handlers

import (
	"github.com/gofiber/fiber/v2"

	"isdn/internal/domain"
	applog "isdn/internal/log"
	"isdn/internal/services"
	"isdn/internal/validate"
)

type MissionHandler struct {
	Missions *services.MissionService
}

// GET /api/v1/admin/live is the board with simulated positions.
func (h *MissionHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"simulated": true,
		"loaded_at": h.Missions.Board.LoadedAt(),
		"saving":    h.Missions.Board.Saving(),
		"missions":  h.Missions.Live(),
	})
}

// GET /api/v1/missions. Drivers only see their own.
func (h *MissionHandler) List(c *fiber.Ctx) error {
	s, _ := CurrentSession(c)
	if s.Role == domain.RoleDriver {
		return c.JSON(h.Missions.ForDriver(s.FullName))
	}
	return c.JSON(h.Missions.Live())
}

type missionInput struct {
	DriverName      string               `json:"driver_name"`
	Vehicle         string               `json:"vehicle"`
	Status          string               `json:"status"`
	CurrentLocation string               `json:"current_location"`
	Fuel            float64              `json:"fuel"`
	Load            float64              `json:"load"`
	Tasks           []domain.MissionTask `json:"tasks"`
}

// POST /api/v1/missions
func (h *MissionHandler) Create(c *fiber.Ctx) error {
	var in missionInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	m := domain.Mission{
		DriverName:      in.DriverName,
		Vehicle:         in.Vehicle,
		Status:          domain.MissionStatus(in.Status),
		CurrentLocation: in.CurrentLocation,
		Telemetry:       domain.Telemetry{Fuel: in.Fuel, Load: in.Load},
		Tasks:           in.Tasks,
	}
	if in.Status != "" {
		st, err := domain.ParseMissionStatus(in.Status)
		if err != nil {
			return fail(c, "missions.create.fail", err, nil)
		}
		m.Status = st
	}
	m, err := h.Missions.Create(c.UserContext(), m)
	if err != nil {
		return fail(c, "missions.create.fail", err, map[string]any{"driver": in.DriverName})
	}
	applog.Audit(c, "missions.create", map[string]any{"mission_id": m.ID, "driver": m.DriverName})
	return c.Status(fiber.StatusCreated).JSON(m)
}

func missionID(c *fiber.Ctx) (string, bool) { return validate.ID(c.Params("id")) }

// PATCH /api/v1/missions/:id/progress {"progress": 60}
func (h *MissionHandler) Progress(c *fiber.Ctx) error {
	id, ok := missionID(c)
	if !ok {
		return badRequest(c, "id")
	}
	var in struct {
		Progress float64 `json:"progress"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	m, err := h.Missions.SetProgress(c.UserContext(), id, in.Progress)
	if err != nil {
		return fail(c, "missions.progress.fail", err, map[string]any{"mission_id": id})
	}
	applog.Audit(c, "missions.progress", map[string]any{"mission_id": id, "progress": m.Progress})
	return c.JSON(m)
}

// PATCH /api/v1/missions/:id/status {"status": "DELAYED"}
func (h *MissionHandler) Status(c *fiber.Ctx) error {
	id, ok := missionID(c)
	if !ok {
		return badRequest(c, "id")
	}
	var in struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	m, err := h.Missions.SetStatus(c.UserContext(), id, in.Status)
	if err != nil {
		return fail(c, "missions.status.fail", err, map[string]any{"mission_id": id, "status": in.Status})
	}
	applog.Audit(c, "missions.status", map[string]any{"mission_id": id, "status": string(m.Status)})
	return c.JSON(m)
}

// POST /api/v1/missions/:id/tasks/:seq/complete
func (h *MissionHandler) CompleteTask(c *fiber.Ctx) error {
	id, ok := missionID(c)
	if !ok {
		return badRequest(c, "id")
	}
	seq, err := c.ParamsInt("seq")
	if err != nil || seq < 1 {
		return badRequest(c, "seq")
	}
	m, err := h.Missions.CompleteTask(c.UserContext(), id, seq)
	if err != nil {
		return fail(c, "missions.task.fail", err, map[string]any{"mission_id": id, "seq": seq})
	}
	applog.Audit(c, "missions.task.complete", map[string]any{"mission_id": id, "seq": seq})
	return c.JSON(m)
}

// DELETE /api/v1/missions/:id
func (h *MissionHandler) Delete(c *fiber.Ctx) error {
	id, ok := missionID(c)
	if !ok {
		return badRequest(c, "id")
	}
	if err := h.Missions.Delete(c.UserContext(), id); err != nil {
		return fail(c, "missions.delete.fail", err, map[string]any{"mission_id": id})
	}
	applog.Audit(c, "missions.delete", map[string]any{"mission_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
