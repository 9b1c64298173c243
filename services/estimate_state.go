package services

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Dimensions are always centimetres.
type Dimensions struct {
	Length  float64 `json:"length"`
	Breadth float64 `json:"breadth"`
}

// Area returns the area in square centimetres.
func (d Dimensions) Area() float64 {
	return d.Length * d.Breadth
}

// OrderAndPaper is the first wizard section: job, paper and die.
type OrderAndPaper struct {
	ClientID      string     `json:"clientId"`
	ProjectName   string     `json:"projectName"`
	JobType       string     `json:"jobType"`
	Quantity      int        `json:"quantity"`
	PaperProvided bool       `json:"paperProvided"`
	PaperID       string     `json:"paperId"`
	PaperName     string     `json:"paperName"`
	DieID         string     `json:"dieId"`
	DieCode       string     `json:"dieCode"`
	DieSize       Dimensions `json:"dieSize"`
	ProductSize   Dimensions `json:"productSize"`
	Frags         int        `json:"frags"`
	Type          string     `json:"type"`
	Date          string     `json:"date"`
	DeliveryDate  string     `json:"deliveryDate"`
	HSNCode       string     `json:"hsnCode"`
}

type LPColor struct {
	PantoneType    string     `json:"pantoneType"`
	PlateType      string     `json:"plateType"`
	PlateSizeType  string     `json:"plateSizeType"`
	PlateDimension Dimensions `json:"plateDimensions"`
	MRType         string     `json:"mrType"`
}

type LPDetails struct {
	IsLPUsed     bool      `json:"isLPUsed"`
	NoOfColors   int       `json:"noOfColors"`
	ColorDetails []LPColor `json:"colorDetails"`
}

type Foil struct {
	BlockSizeType  string     `json:"blockSizeType"`
	BlockDimension Dimensions `json:"blockDimension"`
	FoilType       string     `json:"foilType"`
	BlockType      string     `json:"blockType"`
	MRType         string     `json:"mrType"`
}

type FSDetails struct {
	IsFSUsed    bool   `json:"isFSUsed"`
	FSType      string `json:"fsType"`
	FoilDetails []Foil `json:"foilDetails"`
}

type EMBDetails struct {
	IsEMBUsed       bool       `json:"isEMBUsed"`
	PlateSizeType   string     `json:"plateSizeType"`
	PlateDimensions Dimensions `json:"plateDimensions"`
	PlateTypeMale   string     `json:"plateTypeMale"`
	PlateTypeFemale string     `json:"plateTypeFemale"`
	EMBMR           string     `json:"embMR"`
}

type DigiDetails struct {
	IsDigiUsed     bool       `json:"isDigiUsed"`
	DigiDie        string     `json:"digiDie"`
	DigiDimensions Dimensions `json:"digiDimensions"`
}

type DieCutting struct {
	IsDieCuttingUsed bool   `json:"isDieCuttingUsed"`
	DifficultCutting bool   `json:"difficultCutting"`
	DCMR             string `json:"dcMR"`
}

type Pasting struct {
	IsPastingUsed bool   `json:"isPastingUsed"`
	PastingType   string `json:"pastingType"`
}

type Misc struct {
	IsMiscUsed bool    `json:"isMiscUsed"`
	MiscCharge float64 `json:"miscCharge"`
}

// EstimateState is the whole in-progress estimate. It is persisted verbatim in
// the estimates.state JSON field and only ever changed through Reduce.
type EstimateState struct {
	OrderAndPaper OrderAndPaper `json:"orderAndPaper"`
	LPDetails     LPDetails     `json:"lpDetails"`
	FSDetails     FSDetails     `json:"fsDetails"`
	EMBDetails    EMBDetails    `json:"embDetails"`
	DigiDetails   DigiDetails   `json:"digiDetails"`
	DieCutting    DieCutting    `json:"dieCutting"`
	Pasting       Pasting       `json:"pasting"`
	Misc          Misc          `json:"misc"`
	MarkupType    string        `json:"markupType"`
}

type ActionType string

const (
	ActionUpdateOrderAndPaper ActionType = "UPDATE_ORDER_AND_PAPER"
	ActionUpdateLPDetails     ActionType = "UPDATE_LP_DETAILS"
	ActionUpdateFSDetails     ActionType = "UPDATE_FS_DETAILS"
	ActionUpdateEMBDetails    ActionType = "UPDATE_EMB_DETAILS"
	ActionUpdateDigiDetails   ActionType = "UPDATE_DIGI_DETAILS"
	ActionUpdateDieCutting    ActionType = "UPDATE_DIE_CUTTING"
	ActionUpdatePasting       ActionType = "UPDATE_PASTING"
	ActionUpdateMisc          ActionType = "UPDATE_MISC"
	ActionSetMarkupType       ActionType = "SET_MARKUP_TYPE"
	ActionResetForm           ActionType = "RESET_FORM"
)

// Action is a dispatched update. Payload holds the JSON of the section it replaces.
type Action struct {
	Type    ActionType      `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

var ErrUnknownAction = errors.New("unknown estimate action")

// Reduce applies a single action and returns the new state. The input state is
// never modified. Turning a process off drops whatever details came with it.
func Reduce(state EstimateState, action Action) (EstimateState, error) {
	next := state

	switch action.Type {
	case ActionUpdateOrderAndPaper:
		var p OrderAndPaper
		if err := decodePayload(action, &p); err != nil {
			return state, err
		}
		if p.PaperProvided {
			p.PaperID = ""
			p.PaperName = ""
		}
		next.OrderAndPaper = p

	case ActionUpdateLPDetails:
		var p LPDetails
		if err := decodePayload(action, &p); err != nil {
			return state, err
		}
		if !p.IsLPUsed {
			p = LPDetails{}
		} else {
			p.ColorDetails = resizeLPColors(p.ColorDetails, p.NoOfColors)
		}
		next.LPDetails = p

	case ActionUpdateFSDetails:
		var p FSDetails
		if err := decodePayload(action, &p); err != nil {
			return state, err
		}
		if !p.IsFSUsed {
			p = FSDetails{}
		}
		next.FSDetails = p

	case ActionUpdateEMBDetails:
		var p EMBDetails
		if err := decodePayload(action, &p); err != nil {
			return state, err
		}
		if !p.IsEMBUsed {
			p = EMBDetails{}
		}
		next.EMBDetails = p

	case ActionUpdateDigiDetails:
		var p DigiDetails
		if err := decodePayload(action, &p); err != nil {
			return state, err
		}
		if !p.IsDigiUsed {
			p = DigiDetails{}
		}
		next.DigiDetails = p

	case ActionUpdateDieCutting:
		var p DieCutting
		if err := decodePayload(action, &p); err != nil {
			return state, err
		}
		if !p.IsDieCuttingUsed {
			p = DieCutting{}
		}
		next.DieCutting = p

	case ActionUpdatePasting:
		var p Pasting
		if err := decodePayload(action, &p); err != nil {
			return state, err
		}
		if !p.IsPastingUsed {
			p = Pasting{}
		}
		next.Pasting = p

	case ActionUpdateMisc:
		var p Misc
		if err := decodePayload(action, &p); err != nil {
			return state, err
		}
		if !p.IsMiscUsed {
			p = Misc{}
		}
		next.Misc = p

	case ActionSetMarkupType:
		var markup string
		if err := decodePayload(action, &markup); err != nil {
			return state, err
		}
		next.MarkupType = markup

	case ActionResetForm:
		next = EstimateState{}

	default:
		return state, fmt.Errorf("%w: %q", ErrUnknownAction, action.Type)
	}

	return next, nil
}

// ReduceAll applies actions in order. On the first error it returns the
// state it was given, so a batch is applied whole or not at all.
func ReduceAll(state EstimateState, actions []Action) (EstimateState, error) {
	cur := state
	for i, a := range actions {
		next, err := Reduce(cur, a)
		if err != nil {
			return state, fmt.Errorf("action %d: %w", i, err)
		}
		cur = next
	}
	return cur, nil
}

func decodePayload(action Action, dst any) error {
	if len(action.Payload) == 0 {
		return fmt.Errorf("%s: empty payload", action.Type)
	}
	if err := json.Unmarshal(action.Payload, dst); err != nil {
		return fmt.Errorf("%s: invalid payload: %w", action.Type, err)
	}
	return nil
}

// resizeLPColors keeps one colour entry per declared colour, padding with blanks.
func resizeLPColors(colors []LPColor, n int) []LPColor {
	if n < 0 {
		n = 0
	}
	out := make([]LPColor, n)
	copy(out, colors)
	return out
}
