package game

import (
	"errors"
	"fmt"
)

const (
	OpeningHour      = 9
	ClosingHour      = 21
	DeliveryHour     = 12
	BusinessDayHours = 12

	DaysPerMonth  = 30
	MonthsPerYear = 12

	MaxRecentDeals   = 20
	MaxCompletedROs  = 50
	MaxDailyHistory  = 60
	MaxLeadActivity  = 120
	MaxNotifications = 50
	MaxSoldVehicles  = 100

	DefaultStartingCash = 2_000_000.0
	DefaultSeedVehicles = 40
	DefaultStartYear    = 2024
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrCapacityReached   = errors.New("capacity reached")
	ErrUnknownArchetype  = errors.New("unknown archetype")
	ErrInvalidPackType   = errors.New("pack type must be desirable, neutral or undesirable")
	ErrInvalidQuantity   = errors.New("quantity out of range")
	ErrVehicleNotFound   = errors.New("vehicle not found")
	ErrBelowFloor        = errors.New("asking price below floor")
	ErrInvalidPolicy     = errors.New("pricing policy must be aggressive, balanced, conservative or market")
	ErrInvalidSpeed      = errors.New("speed must be 1, 2, 4 or 8")
	ErrStaffNotFound     = errors.New("staff member not found")
	ErrCloseoutPending   = errors.New("day close-out pending")
	ErrTrainingMaxed     = errors.New("advisor training already at maximum")
	ErrInvalidAmount     = errors.New("amount must be >= 0")
	ErrBadCoefficients   = errors.New("invalid coefficient patch")
)

type VehicleStatus string

const (
	StatusPending VehicleStatus = "pending"
	StatusInStock VehicleStatus = "inStock"
	StatusSold    VehicleStatus = "sold"
)

func (s VehicleStatus) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusInStock:
		return 1
	case StatusSold:
		return 2
	default:
		return -1
	}
}

// Advance moves a status forward. Backwards transitions are rejected.
func (s VehicleStatus) Advance(next VehicleStatus) (VehicleStatus, error) {
	if next.rank() < s.rank() || next.rank() < 0 {
		return s, fmt.Errorf("vehicle status %s -> %s not allowed", s, next)
	}
	return next, nil
}

type PricingPolicy string

const (
	PolicyAggressive   PricingPolicy = "aggressive"
	PolicyBalanced     PricingPolicy = "balanced"
	PolicyConservative PricingPolicy = "conservative"
	PolicyMarket       PricingPolicy = "market"
)

func ParsePricingPolicy(v string) (PricingPolicy, error) {
	switch p := PricingPolicy(v); p {
	case PolicyAggressive, PolicyBalanced, PolicyConservative, PolicyMarket:
		return p, nil
	}
	return "", ErrInvalidPolicy
}

type PackType string

const (
	PackDesirable   PackType = "desirable"
	PackNeutral     PackType = "neutral"
	PackUndesirable PackType = "undesirable"
)

func ParsePackType(v string) (PackType, error) {
	switch p := PackType(v); p {
	case PackDesirable, PackNeutral, PackUndesirable:
		return p, nil
	}
	return "", ErrInvalidPackType
}

type Vehicle struct {
	ID                    string        `json:"id"`
	StockNumber           string        `json:"stock_number"`
	Year                  int           `json:"year"`
	Make                  string        `json:"make"`
	Model                 string        `json:"model"`
	Segment               string        `json:"segment"`
	Condition             string        `json:"condition"`
	IsBEV                 bool          `json:"is_bev"`
	Cost                  float64       `json:"cost"`
	Floor                 float64       `json:"floor"`
	Asking                float64       `json:"asking"`
	BaseAsking            float64       `json:"base_asking,omitempty"`
	ManualPriceAdjustment float64       `json:"manual_price_adjustment,omitempty"`
	ReconCost             float64       `json:"recon_cost"`
	ReconCharged          bool          `json:"recon_charged"`
	PackFee               float64       `json:"pack_fee"`
	Desirability          float64       `json:"desirability"`
	AgeDays               int           `json:"age_days"`
	ArrivalDay            int           `json:"arrival_day"`
	Status                VehicleStatus `json:"status"`
}

type SalesAdvisor struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Archetype   string  `json:"archetype"`
	Skill       float64 `json:"skill"`
	GrossSkill  float64 `json:"gross_skill"`
	CsiSkill    float64 `json:"csi_skill"`
	Morale      float64 `json:"morale"`
	Training    int     `json:"training"`
	DailySalary float64 `json:"daily_salary"`
	Active      bool    `json:"active"`
}

type Technician struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Archetype   string  `json:"archetype"`
	Efficiency  float64 `json:"efficiency"`
	Morale      float64 `json:"morale"`
	DailySalary float64 `json:"daily_salary"`
	Active      bool    `json:"active"`
}

type SalesManager struct {
	Name        string  `json:"name"`
	Skill       float64 `json:"skill"`
	DailySalary float64 `json:"daily_salary"`
}

// Customer only lives for the duration of one deal attempt.
type Customer struct {
	Archetype        string
	CloseBias        float64
	GrossBias        float64
	CsiBias          float64
	BEVAffinity      float64
	PriceSensitivity float64
}

type Deal struct {
	ID          string  `json:"id"`
	VehicleID   string  `json:"vehicle_id"`
	StockNumber string  `json:"stock_number"`
	Vehicle     string  `json:"vehicle"`
	AdvisorID   string  `json:"advisor_id"`
	Customer    string  `json:"customer"`
	AgeDays     int     `json:"age_days"`
	SoldPrice   float64 `json:"sold_price"`
	FrontGross  float64 `json:"front_gross"`
	BackGross   float64 `json:"back_gross"`
	CashIn      float64 `json:"cash_in"`
	CsiImpact   float64 `json:"csi_impact"`
	Probability float64 `json:"probability"`
	Day         int     `json:"day"`
	Month       int     `json:"month"`
	Year        int     `json:"year"`
	Hour        int     `json:"hour"`
}

type ServiceJob struct {
	ID           string  `json:"id"`
	LaborHours   float64 `json:"labor_hours"`
	ComebackRisk float64 `json:"comeback_risk"`
	OpenedDay    int     `json:"opened_day"`
	OpenedHour   int     `json:"opened_hour"`
}

type RepairOrder struct {
	ID           string  `json:"id"`
	JobID        string  `json:"job_id"`
	TechnicianID string  `json:"technician_id"`
	LaborHours   float64 `json:"labor_hours"`
	PartsRevenue float64 `json:"parts_revenue"`
	Comeback     bool    `json:"comeback"`
	CsiImpact    float64 `json:"csi_impact"`
	Day          int     `json:"day"`
	Month        int     `json:"month"`
	Year         int     `json:"year"`
	Hour         int     `json:"hour"`
}

type LeadActivity struct {
	Kind      string `json:"kind"` // lead, appointment, sale, no_sale, no_inventory
	Hour      int    `json:"hour"`
	Minute    int    `json:"minute"`
	Day       int    `json:"day"`
	AdvisorID string `json:"advisor_id,omitempty"`
	Customer  string `json:"customer,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

type Economy struct {
	DemandIndex    float64 `json:"demand_index"`
	InterestRate   float64 `json:"interest_rate"`
	WeatherFactor  float64 `json:"weather_factor"`
	IncentiveLevel float64 `json:"incentive_level"`
}

type Marketing struct {
	SpendPerDay float64 `json:"spend_per_day"`
}

type PricingState struct {
	Policy          PricingPolicy `json:"policy"`
	AgingDiscount60 float64       `json:"aging_discount_60"`
	AgingDiscount90 float64       `json:"aging_discount_90"`
}

type Capacity struct {
	LotSize        int `json:"lot_size"`
	AdvisorSlots   int `json:"advisor_slots"`
	TechnicianBays int `json:"technician_bays"`
}

type Lifetime struct {
	Revenue      float64 `json:"revenue"`
	GrossProfit  float64 `json:"gross_profit"`
	UnitsSold    int     `json:"units_sold"`
	ROsCompleted int     `json:"ros_completed"`
	DaysPlayed   int     `json:"days_played"`
}

// DayLedger accumulates intraday results until close-out.
type DayLedger struct {
	Leads              int                `json:"leads"`
	Appointments       int                `json:"appointments"`
	DealsWorked        int                `json:"deals_worked"`
	UnitsSold          int                `json:"units_sold"`
	Revenue            float64            `json:"revenue"`
	FrontGross         float64            `json:"front_gross"`
	BackGross          float64            `json:"back_gross"`
	CashFromOperations float64            `json:"cash_from_operations"`
	ReconExpense       float64            `json:"recon_expense"`
	CapitalSpend       float64            `json:"capital_spend"`
	Deliveries         int                `json:"deliveries"`
	CsiDelta           float64            `json:"csi_delta"`
	AdvisorMorale      map[string]float64 `json:"advisor_morale"`
	TechHoursUsed      map[string]float64 `json:"tech_hours_used"`
	TechCompleted      map[string]int     `json:"tech_completed"`
	TechComebacks      map[string]int     `json:"tech_comebacks"`
	ServiceHours       float64            `json:"service_hours"`
	PartsRevenue       float64            `json:"parts_revenue"`
	ROsCompleted       int                `json:"ros_completed"`
	Comebacks          int                `json:"comebacks"`
	StartingCash       float64            `json:"starting_cash"`
}

func newDayLedger(startingCash float64) DayLedger {
	return DayLedger{
		AdvisorMorale: map[string]float64{},
		TechHoursUsed: map[string]float64{},
		TechCompleted: map[string]int{},
		TechComebacks: map[string]int{},
		StartingCash:  startingCash,
	}
}

// GameState is the root aggregate. Every mutation path works on a Clone and
// hands the new value back to the repository.
type GameState struct {
	Seed     int64 `json:"seed"`
	RNGState int64 `json:"rng_state"`
	Hour     int   `json:"hour"`
	Day      int   `json:"day"`
	Month    int   `json:"month"`
	Year     int   `json:"year"`
	Paused   bool  `json:"paused"`
	Speed    int   `json:"speed"`

	Cash      float64      `json:"cash"`
	Economy   Economy      `json:"economy"`
	Marketing Marketing    `json:"marketing"`
	Pricing   PricingState `json:"pricing"`
	Capacity  Capacity     `json:"capacity"`

	Inventory    []Vehicle      `json:"inventory"`
	SoldVehicles []Vehicle      `json:"sold_vehicles"`
	Advisors     []SalesAdvisor `json:"advisors"`
	Technicians  []Technician   `json:"technicians"`
	SalesManager *SalesManager  `json:"sales_manager,omitempty"`

	ServiceQueue []ServiceJob   `json:"service_queue"`
	CompletedROs []RepairOrder  `json:"completed_ros"`
	RecentDeals  []Deal         `json:"recent_deals"`
	LeadActivity []LeadActivity `json:"lead_activity"`

	DailyHistory   []DailyReport   `json:"daily_history"`
	MonthlyReports []MonthlyReport `json:"monthly_reports"`
	Notifications  []string        `json:"notifications"`
	Unlocks        []string        `json:"unlocks"`

	Today       DayLedger `json:"today"`
	Lifetime    Lifetime  `json:"lifetime"`
	CSI         float64   `json:"csi"`
	MoraleIndex float64   `json:"morale_index"`

	NextStockNumber int `json:"next_stock_number"`
	NextJobNumber   int `json:"next_job_number"`
	NextStaffNumber int `json:"next_staff_number"`

	Coefficients Coefficients `json:"coefficients"`
}

// DayIndex is the absolute simulated day number, used for delivery timing.
func (s GameState) DayIndex() int {
	return ((s.Year*MonthsPerYear)+(s.Month-1))*DaysPerMonth + (s.Day - 1)
}

// AwaitingCloseout reports whether the business day has ended and is gated.
func (s GameState) AwaitingCloseout() bool {
	return s.Hour >= ClosingHour && s.Paused
}

func (s GameState) DateKey() string {
	return dateKey(s.Year, s.Month, s.Day)
}

func monthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// Season maps a calendar month to a season name.
func Season(month int) string {
	switch month {
	case 12, 1, 2:
		return "winter"
	case 3, 4, 5:
		return "spring"
	case 6, 7, 8:
		return "summer"
	default:
		return "fall"
	}
}

func (s GameState) findVehicle(id string) int {
	for i, v := range s.Inventory {
		if v.ID == id || v.StockNumber == id {
			return i
		}
	}
	return -1
}

func (s GameState) activeAdvisors() []SalesAdvisor {
	out := make([]SalesAdvisor, 0, len(s.Advisors))
	for _, a := range s.Advisors {
		if a.Active {
			out = append(out, a)
		}
	}
	return out
}

func (s GameState) InStockCount() int {
	n := 0
	for _, v := range s.Inventory {
		if v.Status == StatusInStock {
			n++
		}
	}
	return n
}
