package Routing

import (
	"context"
	"math"

	"golang.org/x/exp/rand"
)

// LocalRouter answers routing requests without a network call: great-circle
// distances plus an average-speed duration estimate. Visiting order comes from
// nearest-neighbor with 2-opt improvement, refined by simulated annealing for
// larger stop sets. Used offline, as the fallback capability, and in tests.
type LocalRouter struct {
	// SpeedKmh converts distance to duration. Zero means the default
	// driving average.
	SpeedKmh float64

	// AnnealingFrom is the stop count at which annealing refinement kicks
	// in. Zero means the default of 8.
	AnnealingFrom int
}

func (r *LocalRouter) speed() float64 {
	if r.SpeedKmh > 0 {
		return r.SpeedKmh
	}
	return averageSpeedKmh
}

func (r *LocalRouter) ComputeRoute(ctx context.Context, req RouteRequest) (RouteResult, error) {
	if err := ctx.Err(); err != nil {
		return RouteResult{}, err
	}
	if len(req.Stops) == 0 {
		return RouteResult{Error: "no stops supplied"}, nil
	}

	// Matrix over depot (index 0) and stops (1..n).
	all := append([]Point{req.Origin}, req.Stops...)
	n := len(all)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		for j := range matrix[i] {
			matrix[i][j] = haversineDistance(all[i], all[j])
		}
	}

	order := make([]int, len(req.Stops))
	for i := range order {
		order[i] = i + 1
	}
	if req.OptimizeOrder {
		order = nearestNeighborOrder(matrix)
		order = twoOptImprovement(order, matrix, req.ReturnToOrigin)
		threshold := r.AnnealingFrom
		if threshold == 0 {
			threshold = 8
		}
		if len(order) >= threshold {
			order = annealOrder(order, matrix, req.ReturnToOrigin)
		}
	}

	legs := make([]RouteLeg, 0, len(order)+1)
	current := 0
	for _, idx := range order {
		legs = append(legs, r.leg(matrix[current][idx]))
		current = idx
	}
	if req.ReturnToOrigin {
		legs = append(legs, r.leg(matrix[current][0]))
	}

	stopOrder := make([]int, len(order))
	for i, idx := range order {
		stopOrder[i] = idx - 1
	}
	return RouteResult{StopOrder: stopOrder, Legs: legs}, nil
}

func (r *LocalRouter) ComputeDistanceMatrix(ctx context.Context, origins, destinations []Point) ([][]RouteLeg, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matrix := make([][]RouteLeg, len(origins))
	for i, origin := range origins {
		matrix[i] = make([]RouteLeg, len(destinations))
		for j, destination := range destinations {
			matrix[i][j] = r.leg(haversineDistance(origin, destination))
		}
	}
	return matrix, nil
}

func (r *LocalRouter) leg(distanceKm float64) RouteLeg {
	return RouteLeg{
		DistanceKm:  distanceKm,
		DurationMin: distanceKm / r.speed() * 60,
	}
}

// haversineDistance calculates the great-circle distance between two points
// in kilometers.
func haversineDistance(p1, p2 Point) float64 {
	lat1 := p1.Lat * math.Pi / 180
	lng1 := p1.Lng * math.Pi / 180
	lat2 := p2.Lat * math.Pi / 180
	lng2 := p2.Lng * math.Pi / 180

	dlat := lat2 - lat1
	dlng := lng2 - lng1
	a := math.Pow(math.Sin(dlat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dlng/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// nearestNeighborOrder greedily visits the closest unvisited stop, starting
// from the depot (matrix index 0). Returned indexes are matrix indexes.
func nearestNeighborOrder(matrix [][]float64) []int {
	n := len(matrix)
	visited := make([]bool, n)
	visited[0] = true

	order := make([]int, 0, n-1)
	current := 0
	for len(order) < n-1 {
		nearest := -1
		minDist := math.Inf(1)
		for j := 1; j < n; j++ {
			if !visited[j] && matrix[current][j] < minDist {
				minDist = matrix[current][j]
				nearest = j
			}
		}
		if nearest == -1 {
			break
		}
		order = append(order, nearest)
		visited[nearest] = true
		current = nearest
	}
	return order
}

// orderCost totals the tour cost from the depot through the order, with an
// optional return leg.
func orderCost(order []int, matrix [][]float64, returnToOrigin bool) float64 {
	cost := 0.0
	current := 0
	for _, idx := range order {
		cost += matrix[current][idx]
		current = idx
	}
	if returnToOrigin {
		cost += matrix[current][0]
	}
	return cost
}

// twoOptImprovement repeatedly reverses sub-tours while doing so shortens the
// route.
func twoOptImprovement(order []int, matrix [][]float64, returnToOrigin bool) []int {
	improved := true
	for improved {
		improved = false
		for i := 0; i < len(order)-1; i++ {
			for j := i + 1; j < len(order); j++ {
				candidate := make([]int, len(order))
				copy(candidate, order)
				for k, l := i, j; k < l; k, l = k+1, l-1 {
					candidate[k], candidate[l] = candidate[l], candidate[k]
				}
				if orderCost(candidate, matrix, returnToOrigin) < orderCost(order, matrix, returnToOrigin) {
					order = candidate
					improved = true
				}
			}
		}
	}
	return order
}

// annealOrder runs a short simulated-annealing pass over the 2-opt result.
func annealOrder(order []int, matrix [][]float64, returnToOrigin bool) []int {
	best := make([]int, len(order))
	copy(best, order)
	bestCost := orderCost(best, matrix, returnToOrigin)

	current := make([]int, len(order))
	copy(current, order)
	currentCost := bestCost

	rng := rand.New(rand.NewSource(1))
	temperature := 100.0
	const coolingRate = 0.995
	const minTemperature = 0.01

	for temperature > minTemperature {
		candidate := make([]int, len(current))
		copy(candidate, current)

		i := rng.Intn(len(candidate))
		j := rng.Intn(len(candidate))
		for i == j {
			j = rng.Intn(len(candidate))
		}
		candidate[i], candidate[j] = candidate[j], candidate[i]

		candidateCost := orderCost(candidate, matrix, returnToOrigin)
		delta := candidateCost - currentCost
		if delta < 0 || rng.Float64() < math.Exp(-delta/temperature) {
			current = candidate
			currentCost = candidateCost
			if currentCost < bestCost {
				copy(best, current)
				bestCost = currentCost
			}
		}

		temperature *= coolingRate
	}
	return best
}
