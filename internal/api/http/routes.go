package httpapi

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/worldview/internal/worldview"
	"github.com/i474232898/worldview/internal/worldview/providers"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, pipeline *worldview.Pipeline) {
	v1 := app.Group("/api/v1")

	v1.Get("/search", func(c *fiber.Ctx) error {
		d, err := pipeline.Search(c.UserContext(), c.Query("city"))
		return respond(c, d, err)
	})

	v1.Get("/click", func(c *fiber.Ctx) error {
		q, err := parseCoordsQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		d, err := pipeline.Click(c.UserContext(), q.Lat, q.Lon)
		return respond(c, d, err)
	})

	v1.Get("/device", func(c *fiber.Ctx) error {
		d, err := pipeline.Locate(c.UserContext())
		return respond(c, d, err)
	})

	v1.Post("/device", func(c *fiber.Ctx) error {
		var req deviceReport
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid device report body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		d, err := pipeline.LocateWith(c.UserContext(), providers.ReportedLocator{
			Lat:   req.Latitude,
			Lon:   req.Longitude,
			Error: req.Error,
		})
		return respond(c, d, err)
	})

	v1.Get("/display", func(c *fiber.Ctx) error {
		return c.JSON(pipeline.Snapshot())
	})

	v1.Get("/history", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"history": pipeline.History(),
		})
	})

	v1.Get("/language", func(c *fiber.Ctx) error {
		lang := pipeline.Language()
		return c.JSON(fiber.Map{
			"language":  lang,
			"available": worldview.Languages,
			"labels":    worldview.LabelsFor(lang),
		})
	})

	v1.Put("/language", func(c *fiber.Ctx) error {
		var req languageRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid language body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		lang := worldview.Language(req.Language)
		if err := pipeline.SetLanguage(c.UserContext(), lang); err != nil {
			if errors.Is(err, worldview.ErrInvalidInput) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to save language preference")
		}
		return c.JSON(fiber.Map{
			"language": lang,
			"labels":   worldview.LabelsFor(lang),
		})
	})
}

// respond writes the run's display. Failures keep the localized generic
// message in the body; the status code carries the failure kind.
func respond(c *fiber.Ctx, d worldview.Display, err error) error {
	if err == nil {
		return c.JSON(d)
	}
	return c.Status(statusFor(worldview.KindOf(err))).JSON(d)
}

func statusFor(kind worldview.FailureKind) int {
	switch kind {
	case worldview.KindInvalidInput:
		return fiber.StatusBadRequest
	case worldview.KindNotFound:
		return fiber.StatusNotFound
	case worldview.KindPermissionDenied:
		return fiber.StatusForbidden
	case worldview.KindUnsupported:
		return fiber.StatusNotImplemented
	default:
		return fiber.StatusBadGateway
	}
}

// coordsQuery holds the map click position.
type coordsQuery struct {
	Lat float64 `validate:"min=-90,max=90"`
	Lon float64 `validate:"min=-180,max=180"`
}

func parseCoordsQuery(c *fiber.Ctx) (coordsQuery, error) {
	var q coordsQuery

	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		return q, errors.New("lat must be a number")
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		return q, errors.New("lon must be a number")
	}
	q.Lat, q.Lon = lat, lon

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// deviceReport is the browser's geolocation result.
type deviceReport struct {
	Latitude  *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Error     string   `json:"error" validate:"omitempty,oneof=denied unsupported"`
}

type languageRequest struct {
	Language string `json:"language" validate:"required,oneof=en zh ja"`
}
