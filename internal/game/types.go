package game

type SalesHourResult struct {
	Leads        int                `json:"leads"`
	Appointments int                `json:"appointments"`
	DealsWorked  int                `json:"deals_worked"`
	Deals        []Deal             `json:"deals"`
	SoldIDs      []string           `json:"sold_ids"`
	CashDelta    float64            `json:"cash_delta"`
	CsiDelta     float64            `json:"csi_delta"`
	MoraleDeltas map[string]float64 `json:"morale_deltas"`
	Activity     []LeadActivity     `json:"activity"`
}

type ServiceHourResult struct {
	Queue         []ServiceJob       `json:"queue"`
	ROs           []RepairOrder      `json:"ros"`
	HoursUsed     map[string]float64 `json:"hours_used"`
	Completed     map[string]int     `json:"completed"`
	Comebacks     map[string]int     `json:"comebacks"`
	ComebackCount int                `json:"comeback_count"`
	ServiceHours  float64            `json:"service_hours"`
	PartsRevenue  float64            `json:"parts_revenue"`
	CsiDelta      float64            `json:"csi_delta"`
	NextJob       int                `json:"next_job"`
}

// HourResult summarises one RunHour call.
type HourResult struct {
	Hour       int               `json:"hour"`
	Ran        bool              `json:"ran"`
	Gated      bool              `json:"gated"`
	Deliveries int               `json:"deliveries"`
	Sales      SalesHourResult   `json:"sales"`
	Service    ServiceHourResult `json:"service"`
}

type PackResult struct {
	Vehicles        []Vehicle `json:"vehicles"`
	TotalCost       float64   `json:"total_cost"`
	NextStockNumber int       `json:"next_stock_number"`
}

type RestockResult struct {
	Requested int       `json:"requested"`
	Added     int       `json:"added"`
	CashSpent float64   `json:"cash_spent"`
	Vehicles  []Vehicle `json:"vehicles"`
}

type DailyReport struct {
	Date               string   `json:"date"`
	Day                int      `json:"day"`
	Month              int      `json:"month"`
	Year               int      `json:"year"`
	Leads              int      `json:"leads"`
	Appointments       int      `json:"appointments"`
	DealsWorked        int      `json:"deals_worked"`
	UnitsSold          int      `json:"units_sold"`
	ClosingRate        float64  `json:"closing_rate"`
	Revenue            float64  `json:"revenue"`
	FrontGross         float64  `json:"front_gross"`
	BackGross          float64  `json:"back_gross"`
	AvgFrontGross      float64  `json:"avg_front_gross"`
	CashFromOperations float64  `json:"cash_from_operations"`
	ReconExpense       float64  `json:"recon_expense"`
	CapitalSpend       float64  `json:"capital_spend"`
	Deliveries         int      `json:"deliveries"`
	ROsCompleted       int      `json:"ros_completed"`
	Comebacks          int      `json:"comebacks"`
	ComebackRate       float64  `json:"comeback_rate"`
	ServiceHours       float64  `json:"service_hours"`
	PartsRevenue       float64  `json:"parts_revenue"`
	OperatingExpenses  float64  `json:"operating_expenses"`
	FloorPlanInterest  float64  `json:"floor_plan_interest"`
	MarketingSpend     float64  `json:"marketing_spend"`
	StartingCash       float64  `json:"starting_cash"`
	EndingCash         float64  `json:"ending_cash"`
	NetCashFlow        float64  `json:"net_cash_flow"`
	CSI                float64  `json:"csi"`
	MoraleIndex        float64  `json:"morale_index"`
	InventoryCount     int      `json:"inventory_count"`
	DaysSupply         float64  `json:"days_supply"`
	Event              string   `json:"event,omitempty"`
	Notes              []string `json:"notes,omitempty"`
}

type MonthlyReport struct {
	Key               string  `json:"key"`
	Year              int     `json:"year"`
	Month             int     `json:"month"`
	Days              int     `json:"days"`
	Leads             int     `json:"leads"`
	DealsWorked       int     `json:"deals_worked"`
	UnitsSold         int     `json:"units_sold"`
	ClosingRate       float64 `json:"closing_rate"`
	Revenue           float64 `json:"revenue"`
	FrontGross        float64 `json:"front_gross"`
	BackGross         float64 `json:"back_gross"`
	AvgFrontGross     float64 `json:"avg_front_gross"`
	PartsRevenue      float64 `json:"parts_revenue"`
	ROsCompleted      int     `json:"ros_completed"`
	ComebackRate      float64 `json:"comeback_rate"`
	OperatingExpenses float64 `json:"operating_expenses"`
	FloorPlanInterest float64 `json:"floor_plan_interest"`
	MarketingSpend    float64 `json:"marketing_spend"`
	NetCashFlow       float64 `json:"net_cash_flow"`
	EndingCash        float64 `json:"ending_cash"`
	AvgCSI            float64 `json:"avg_csi"`
}

type HealthReport struct {
	ExpectedGrossPerUnit float64  `json:"expected_gross_per_unit"`
	AvgFrontGross        float64  `json:"avg_front_gross"`
	ExpectedBackGross    float64  `json:"expected_back_gross"`
	TargetGross          float64  `json:"target_gross"`
	Starving             bool     `json:"starving"`
	TrailingUnits        int      `json:"trailing_units"`
	DaysSupply           float64  `json:"days_supply"`
	DailyBurn            float64  `json:"daily_burn"`
	CashRunwayDays       float64  `json:"cash_runway_days"`
	Warnings             []string `json:"warnings"`
}
