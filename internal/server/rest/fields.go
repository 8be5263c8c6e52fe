package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/farmhand/internal/common"
	"github.com/dmitrijs2005/farmhand/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// FieldService is implemented by services.FieldService.
type FieldService interface {
	Create(ctx context.Context, field *models.Field) error
	List(ctx context.Context) ([]models.Field, error)
	Get(ctx context.Context, number int) (*models.Field, error)
	Update(ctx context.Context, number int, patch models.FieldPatch) error
	Delete(ctx context.Context, number int) error
	AddCrop(ctx context.Context, crop *models.FieldCrop) error
	CropsByTense(ctx context.Context, number int, tense models.GrowthTense) ([]models.FieldCrop, error)
}

// createFieldKeys is the order in which missing or empty keys are reported.
var createFieldKeys = []string{"field_number", "ground_type", "soil_type", "nitrogen_level",
	"ph_level", "plowed", "rolled", "weeded", "mulched"}

type createFieldRequest struct {
	Number        int     `json:"field_number" binding:"gte=1"`
	GroundType    string  `json:"ground_type"`
	SoilType      string  `json:"soil_type"`
	NitrogenLevel int     `json:"nitrogen_level" binding:"gte=0"`
	PHLevel       float64 `json:"ph_level" binding:"gte=0,lte=14"`
	Plowed        bool    `json:"plowed"`
	Rolled        bool    `json:"rolled"`
	Weeded        bool    `json:"weeded"`
	Mulched       bool    `json:"mulched"`
}

type patchFieldRequest struct {
	GroundType    *string  `json:"ground_type"`
	SoilType      *string  `json:"soil_type"`
	NitrogenLevel *int     `json:"nitrogen_level" binding:"omitempty,gte=0"`
	PHLevel       *float64 `json:"ph_level" binding:"omitempty,gte=0,lte=14"`
	Plowed        *bool    `json:"plowed"`
	Rolled        *bool    `json:"rolled"`
	Weeded        *bool    `json:"weeded"`
	Mulched       *bool    `json:"mulched"`
}

type addCropRequest struct {
	FieldNumber *int   `json:"field_number" binding:"required"`
	Type        string `json:"type" binding:"required"`
	GrowthStage int    `json:"growth_stage" binding:"gte=0"`
	GrowthTense string `json:"growth_tense" binding:"required"`
}

type cropResponse struct {
	Type        string `json:"type"`
	GrowthStage int    `json:"growth_stage"`
	GrowthTense string `json:"growth_tense"`
	FieldID     int    `json:"field_id"`
}

type fieldResponse struct {
	Number        int            `json:"number"`
	GroundType    string         `json:"ground_type"`
	SoilType      string         `json:"soil_type"`
	NitrogenLevel int            `json:"nitrogen_level"`
	PHLevel       float64        `json:"ph_level"`
	Plowed        bool           `json:"plowed"`
	Rolled        bool           `json:"rolled"`
	Weeded        bool           `json:"weeded"`
	Mulched       bool           `json:"mulched"`
	Crops         []cropResponse `json:"crops"`
}

func newCropResponses(crops []models.FieldCrop) []cropResponse {
	out := make([]cropResponse, 0, len(crops))
	for _, c := range crops {
		out = append(out, cropResponse{
			Type:        c.Type,
			GrowthStage: c.GrowthStage,
			GrowthTense: string(c.GrowthTense),
			FieldID:     c.FieldNumber,
		})
	}
	return out
}

func newFieldResponse(f *models.Field) fieldResponse {
	return fieldResponse{
		Number:        f.Number,
		GroundType:    f.GroundType,
		SoilType:      f.SoilType,
		NitrogenLevel: f.NitrogenLevel,
		PHLevel:       f.PHLevel,
		Plowed:        f.Plowed,
		Rolled:        f.Rolled,
		Weeded:        f.Weeded,
		Mulched:       f.Mulched,
		Crops:         newCropResponses(f.Crops),
	}
}

func errorBody(msg string) gin.H   { return gin.H{"error": msg} }
func messageBody(msg string) gin.H { return gin.H{"message": msg} }

// createField requires every attribute to be present and non-empty; missing
// keys are reported before empty ones.
func (s *HTTPServer) createField(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(msgInvalidBody))
		return
	}

	var present map[string]json.RawMessage
	if err := json.Unmarshal(raw, &present); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(msgInvalidBody))
		return
	}

	var empty []string
	for _, key := range createFieldKeys {
		v, ok := present[key]
		if !ok {
			c.JSON(http.StatusBadRequest, errorBody("Missing required JSON fields."))
			return
		}
		if v := bytes.TrimSpace(v); bytes.Equal(v, []byte("null")) || bytes.Equal(v, []byte(`""`)) {
			empty = append(empty, key)
		}
	}
	if len(empty) > 0 {
		c.JSON(http.StatusBadRequest,
			errorBody(fmt.Sprintf("The following values are empty: %s.", strings.Join(empty, ", "))))
		return
	}

	var req createFieldRequest
	if err := binding.JSON.BindBody(raw, &req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(msgInvalidBody))
		return
	}

	err = s.fields.Create(c.Request.Context(), &models.Field{
		Number:        req.Number,
		GroundType:    req.GroundType,
		SoilType:      req.SoilType,
		NitrogenLevel: req.NitrogenLevel,
		PHLevel:       req.PHLevel,
		Plowed:        req.Plowed,
		Rolled:        req.Rolled,
		Weeded:        req.Weeded,
		Mulched:       req.Mulched,
	})
	if err != nil {
		if errors.Is(err, common.ErrFieldExists) {
			c.JSON(http.StatusBadRequest, errorBody(fmt.Sprintf("Field %d already exists.", req.Number)))
			return
		}
		s.writeFieldError(c, err)
		return
	}

	c.JSON(http.StatusOK, messageBody("Field created successfully"))
}

func (s *HTTPServer) listFields(c *gin.Context) {
	list, err := s.fields.List(c.Request.Context())
	if err != nil {
		s.writeFieldError(c, err)
		return
	}
	if len(list) == 0 {
		c.JSON(http.StatusNotFound, errorBody("Fields not found"))
		return
	}

	out := make([]fieldResponse, 0, len(list))
	for i := range list {
		out = append(out, newFieldResponse(&list[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (s *HTTPServer) getField(c *gin.Context) {
	number, ok := fieldNumber(c)
	if !ok {
		return
	}

	f, err := s.fields.Get(c.Request.Context(), number)
	if err != nil {
		if errors.Is(err, common.ErrFieldNotFound) {
			c.JSON(http.StatusNotFound, errorBody("Field not found"))
			return
		}
		s.writeFieldError(c, err)
		return
	}

	c.JSON(http.StatusOK, newFieldResponse(f))
}

// updateField ignores keys that are not patchable, including field_number.
func (s *HTTPServer) updateField(c *gin.Context) {
	number, ok := fieldNumber(c)
	if !ok {
		return
	}

	var req patchFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(msgInvalidBody))
		return
	}

	err := s.fields.Update(c.Request.Context(), number, models.FieldPatch{
		GroundType:    req.GroundType,
		SoilType:      req.SoilType,
		NitrogenLevel: req.NitrogenLevel,
		PHLevel:       req.PHLevel,
		Plowed:        req.Plowed,
		Rolled:        req.Rolled,
		Weeded:        req.Weeded,
		Mulched:       req.Mulched,
	})
	if err != nil {
		if errors.Is(err, common.ErrFieldNotFound) {
			c.JSON(http.StatusNotFound, errorBody(fmt.Sprintf("Field with ID %d not found.", number)))
			return
		}
		s.writeFieldError(c, err)
		return
	}

	c.JSON(http.StatusOK, messageBody(fmt.Sprintf("Field %d updated successfully.", number)))
}

func (s *HTTPServer) deleteField(c *gin.Context) {
	number, ok := fieldNumber(c)
	if !ok {
		return
	}

	if err := s.fields.Delete(c.Request.Context(), number); err != nil {
		if errors.Is(err, common.ErrFieldNotFound) {
			c.JSON(http.StatusNotFound, messageBody(fmt.Sprintf("Field %d doesn't exist.", number)))
			return
		}
		s.writeFieldError(c, err)
		return
	}

	c.JSON(http.StatusOK, messageBody(fmt.Sprintf("Field %d has been deleted.", number)))
}

func (s *HTTPServer) addCrop(c *gin.Context) {
	var req addCropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(msgInvalidBody))
		return
	}

	err := s.fields.AddCrop(c.Request.Context(), &models.FieldCrop{
		Type:        req.Type,
		GrowthStage: req.GrowthStage,
		GrowthTense: models.GrowthTense(req.GrowthTense),
		FieldNumber: *req.FieldNumber,
	})
	if err != nil {
		if errors.Is(err, common.ErrFieldNotFound) {
			c.JSON(http.StatusBadRequest, messageBody(fmt.Sprintf("No field created for field %d", *req.FieldNumber)))
			return
		}
		s.writeFieldError(c, err)
		return
	}

	c.JSON(http.StatusOK, messageBody("Crop created successfully"))
}

// cropsByTense serves one of the past, present or future crop listings.
func (s *HTTPServer) cropsByTense(tense models.GrowthTense) gin.HandlerFunc {
	return func(c *gin.Context) {
		number, ok := fieldNumber(c)
		if !ok {
			return
		}

		crops, err := s.fields.CropsByTense(c.Request.Context(), number, tense)
		if err != nil {
			s.writeFieldError(c, err)
			return
		}
		c.JSON(http.StatusOK, newCropResponses(crops))
	}
}

// fieldNumber parses the :number path parameter, answering 400 when it is
// not an integer.
func fieldNumber(c *gin.Context) (int, bool) {
	n, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid field number"))
		return 0, false
	}
	return n, true
}

func (s *HTTPServer) writeFieldError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		c.JSON(http.StatusBadRequest, errorBody(msgInvalidBody))
	default:
		s.logger.Error(c.Request.Context(), "field request failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorBody(msgInternal))
	}
}
